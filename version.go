// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogslack

// Version identifies this release of slogslack. Release builds stamp it with
// -ldflags "-X github.com/pjscruggs/slogslack.Version=...".
var Version = "v0.1.0"

// UserAgent is the User-Agent header of webhook requests, so the receiving
// workspace can tell slogslack traffic apart in its audit logs.
var UserAgent = "slogslack/" + Version

// GetVersion reports [Version].
func GetVersion() string { return Version }
