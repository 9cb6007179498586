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

package memur_test

// dropLog records destruction order for instrumented test values.
type dropLog struct {
	entries []string
}

func (l *dropLog) add(name string) {
	l.entries = append(l.entries, name)
}

// flagged appends its name to a shared log when the arena destroys it.
type flagged struct {
	name string
	log  *dropLog
}

func (f *flagged) Drop() {
	f.log.add(f.name)
}

// counted bumps a shared counter when the arena destroys it.
type counted struct {
	drops *int
}

func (c *counted) Drop() {
	*c.drops++
}
