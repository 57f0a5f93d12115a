// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package klog

import "github.com/google/uuid"

// UUIDGenerator produces RFC 4122 v4 string identifiers. The Facade uses it
// for device identity; the core never persists a UUID on disk.
type UUIDGenerator interface {
	Generate() string
}

// googleUUIDGenerator is the default UUIDGenerator.
type googleUUIDGenerator struct{}

// NewUUIDGenerator returns the default UUIDGenerator, backed by google/uuid.
func NewUUIDGenerator() UUIDGenerator { return googleUUIDGenerator{} }

func (googleUUIDGenerator) Generate() string {
	return uuid.New().String()
}
