// Package adapters はcareフィーチャーのカタログ読み込みを実装します。
package adapters

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"plantid_backend/internal/feature/care/domain/entity"
)

//go:embed default_care.toml
var defaultCatalog []byte

// catalogFile はTOMLファイルの構造です。
type catalogFile struct {
	Instructions []instructionRecord `toml:"instruction"`
}

type instructionRecord struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Icon        string `toml:"icon"`
	Tooltip     string `toml:"tooltip"`
}

// Catalog は読み込み済みの育て方ヒント一覧です。起動後は読み取り専用です。
type Catalog struct {
	instructions []entity.CareInstruction
}

// LoadCatalog はカタログを読み込みます。pathが空の場合は組み込みの既定値を使います。
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return decodeCatalog(bytes.NewReader(defaultCatalog))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open care catalog: %w", err)
	}
	defer file.Close()

	c, err := decodeCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// DefaultCatalog は組み込みの既定カタログを返します。
func DefaultCatalog() *Catalog {
	c, err := decodeCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded care catalog: %v", err))
	}
	return c
}

func decodeCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse care catalog: %w", err)
	}
	if len(f.Instructions) == 0 {
		return nil, errors.New("care catalog has no instructions")
	}

	out := make([]entity.CareInstruction, 0, len(f.Instructions))
	for i, rec := range f.Instructions {
		if strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Description) == "" {
			return nil, fmt.Errorf("care catalog entry %d: title and description are required", i+1)
		}
		out = append(out, entity.CareInstruction{
			Title:       rec.Title,
			Description: rec.Description,
			Icon:        rec.Icon,
			Tooltip:     rec.Tooltip,
		})
	}
	return &Catalog{instructions: out}, nil
}

// List はヒント一覧のコピーを返します。
func (c *Catalog) List() []entity.CareInstruction {
	return slices.Clone(c.instructions)
}
