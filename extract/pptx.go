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

package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	presentationPart     = "ppt/presentation.xml"
	presentationRelsPart = "ppt/_rels/presentation.xml.rels"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// slideXML captures the top-level shapes of a slide in document order.
// Group shapes, pictures and graphic frames carry no shape-level text and are
// not matched.
type slideXML struct {
	Shapes []shapeXML `xml:"cSld>spTree>sp"`
}

type shapeXML struct {
	TextBody *struct {
		Paragraphs []paragraphXML `xml:"p"`
	} `xml:"txBody"`
}

// paragraphXML collects run, field and line-break text in document order.
type paragraphXML struct {
	text string
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth := 0
	inText := false
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				p.text = sb.String()
				return nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

func extractPPTX(ctx context.Context, filePath string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	slides, err := slideOrder(parts)
	if err != nil {
		return "", err
	}
	if len(slides) == 0 {
		return "", errors.New("no slides found")
	}

	var sb strings.Builder
	for _, name := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		f, ok := parts[name]
		if !ok {
			return "", fmt.Errorf("missing slide part %s", name)
		}
		var slide slideXML
		if err := decodePart(f, &slide); err != nil {
			return "", fmt.Errorf("slide %s: %w", name, err)
		}
		for _, shape := range slide.Shapes {
			if shape.TextBody == nil {
				continue
			}
			paragraphs := make([]string, len(shape.TextBody.Paragraphs))
			for i, p := range shape.TextBody.Paragraphs {
				paragraphs[i] = p.text
			}
			sb.WriteString(strings.Join(paragraphs, "\n"))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// slideOrder returns slide part names in presentation order. When the
// presentation part is missing or unusable it falls back to the numeric
// order of ppt/slides/slideN.xml.
func slideOrder(parts map[string]*zip.File) ([]string, error) {
	if ordered, ok := slidesFromPresentation(parts); ok {
		return ordered, nil
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for name := range parts {
		m := slidePartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, err
		}
		found = append(found, numbered{name: name, n: n})
	}
	slices.SortFunc(found, func(a, b numbered) int { return a.n - b.n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names, nil
}

func slidesFromPresentation(parts map[string]*zip.File) ([]string, bool) {
	presFile, ok := parts[presentationPart]
	if !ok {
		return nil, false
	}
	relsFile, ok := parts[presentationRelsPart]
	if !ok {
		return nil, false
	}

	var pres presentationXML
	if err := decodePart(presFile, &pres); err != nil {
		return nil, false
	}
	var rels relationshipsXML
	if err := decodePart(relsFile, &rels); err != nil {
		return nil, false
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}

	names := make([]string, 0, len(pres.SlideIDs))
	for _, id := range pres.SlideIDs {
		target, ok := targets[id.RelID]
		if !ok {
			return nil, false
		}
		var name string
		if strings.HasPrefix(target, "/") {
			name = strings.TrimPrefix(target, "/")
		} else {
			name = path.Join("ppt", target)
		}
		names = append(names, name)
	}
	return names, len(names) > 0
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
