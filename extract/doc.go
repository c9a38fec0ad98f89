// Copyright 2025 Poiesic Systems
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

// Package extract turns source documents into a single text blob.
//
// Formats are chosen by file extension:
//
//	.txt   UTF-8 text, returned as is
//	.pptx  text of every shape, slide order then shape order, one shape per line
//	.pdf   text of every page in page order
//
// Unknown extensions return ErrUnsupportedFormat. Unreadable files return an
// *ExtractionError that matches ErrExtraction.
package extract
