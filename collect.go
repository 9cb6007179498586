// Copyright 2025 The Memur Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memur

import "iter"

// CollectList drains seq into a fresh [List].
func CollectList[T any](a *Arena, seq iter.Seq[T]) (*List[T], error) {
	list, err := NewList[T](a)
	if err != nil {
		return nil, err
	}
	for v := range seq {
		if err := list.Push(v); err != nil {
			list.Free()
			return nil, err
		}
	}
	return list, nil
}

// CollectArray drains seq into a fresh growable [Array].
func CollectArray[T any](a *Arena, seq iter.Seq[T]) (*Array[T], error) {
	arr, err := NewArray[T](a)
	if err != nil {
		return nil, err
	}
	for v := range seq {
		if err := arr.Push(v); err != nil {
			arr.Free()
			return nil, err
		}
	}
	return arr, nil
}
