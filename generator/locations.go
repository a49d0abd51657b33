package generator

import (
	"github.com/sourcemeta-go/registryindex/frame"
	"github.com/sourcemeta-go/registryindex/metapack"
)

// FrameLocations writes the map from static location URI to
// `{pointer, dialect, baseDialect}` that frame.Analyse produces for the
// materialised schema. Grounded on GENERATE_FRAME_LOCATIONS.
func FrameLocations(destination string, dependencies []string, _ func(string), ctxAny any) error {
	gctx := ctxAny.(*Context)

	var schema map[string]any
	if _, err := metapack.ReadJSON(dependencies[0], &schema); err != nil {
		return err
	}
	dialectID, _ := schema["$schema"].(string)

	fr, err := frame.Analyse(schema, gctx.Identifier, dialectID)
	if err != nil {
		return err
	}

	_, err = metapack.WriteJSON(destination, fr.Locations, metapack.WriteOptions{
		MIME:     "application/json",
		Encoding: metapack.EncodingGzip,
	})
	return err
}
