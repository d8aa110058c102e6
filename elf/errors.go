// Copyright 2024 Google LLC
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

package elf

import "errors"

// ErrNotELF is a soft-skip signal: the input lacks the ELF magic or has no
// SHT_DYNAMIC section. Callers should skip the file at Debug level, not
// treat it as a failure.
var ErrNotELF = errors.New("elf: not an ELF image or no dynamic section")

// ErrMalformed wraps every hard parse error: truncated headers, bad
// entsize, missing DT_STRTAB/DT_STRSZ, out-of-range or unterminated
// strings. Always wrapped with additional context via fmt.Errorf("...: %w").
var ErrMalformed = errors.New("elf: malformed image")
