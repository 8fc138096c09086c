package docapi

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/layerscope/internal/layers"
)

// PageSize is a page's size in PDF points.
type PageSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// PageBundle is everything the backend knows about one page.
type PageBundle struct {
	Size            *PageSize       `json:"size,omitempty" yaml:"size,omitempty"`
	Layers          []layers.Layer  `json:"layers" yaml:"layers"`
	FullRasterURL   string          `json:"full_raster_url,omitempty" yaml:"full_raster_url,omitempty"`
	ZeroAreaObjects []layers.Object `json:"zero_area_objects,omitempty" yaml:"zero_area_objects,omitempty"`
}

// Dimensions returns the page size, falling back to the given defaults for
// missing or non-positive values.
func (b *PageBundle) Dimensions(defWidth, defHeight float64) (float64, float64) {
	w, h := defWidth, defHeight
	if b != nil && b.Size != nil {
		if b.Size.Width > 0 {
			w = b.Size.Width
		}
		if b.Size.Height > 0 {
			h = b.Size.Height
		}
	}
	return w, h
}

//go:embed pagebundle.schema.json
var pageBundleSchemaJSON []byte

var (
	pageBundleSchemaOnce sync.Once
	pageBundleSchema     *jsonschema.Schema
	pageBundleSchemaErr  error
)

func compiledPageBundleSchema() (*jsonschema.Schema, error) {
	pageBundleSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("pagebundle.schema.json", bytes.NewReader(pageBundleSchemaJSON)); err != nil {
			pageBundleSchemaErr = fmt.Errorf("failed to load page bundle schema: %w", err)
			return
		}
		pageBundleSchema, pageBundleSchemaErr = compiler.Compile("pagebundle.schema.json")
		if pageBundleSchemaErr != nil {
			pageBundleSchemaErr = fmt.Errorf("failed to compile page bundle schema: %w", pageBundleSchemaErr)
		}
	})
	return pageBundleSchema, pageBundleSchemaErr
}

// ValidatePageBundle checks a raw page bundle against the schema. Object
// bboxes are not checked; a malformed one is skipped at render time.
func ValidatePageBundle(raw []byte) error {
	schema, err := compiledPageBundleSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode page bundle for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("page bundle does not match schema: %w", err)
	}
	return nil
}

// DecodePageBundle validates (when asked) and decodes a raw page bundle.
func DecodePageBundle(raw []byte, validate bool) (*PageBundle, error) {
	if validate {
		if err := ValidatePageBundle(raw); err != nil {
			return nil, err
		}
	}
	var bundle PageBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode page bundle: %w", err)
	}
	return &bundle, nil
}

// GetPageBundle fetches the bundle for a 1-based page number.
func (c *Client) GetPageBundle(ctx context.Context, documentID string, page int) (*PageBundle, error) {
	path := "/documents/" + url.PathEscape(documentID) + "/pages/" + strconv.Itoa(page)
	raw, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("get page %d of %s: %w", page, documentID, err)
	}
	bundle, err := DecodePageBundle(raw, c.validate)
	if err != nil {
		return nil, fmt.Errorf("page %d of %s: %w", page, documentID, err)
	}
	return bundle, nil
}
