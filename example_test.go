package locationprocessor_test

import (
	"fmt"
	"image"
	"log"

	locationprocessor "github.com/menta2k/location-processor"
	"github.com/menta2k/location-processor/pkg/surface"
	"github.com/menta2k/location-processor/pkg/types"
)

func Example() {
	fields, err := types.ParseFieldSet([]byte(`{"RED": {"classification": "abc"}, "GREEN": {"classification": "def"}}`))
	if err != nil {
		log.Fatal(err)
	}

	p := locationprocessor.New()
	opts := locationprocessor.DefaultOptions()
	opts.Key = "form"

	prep, err := p.PrepareImage(image.NewNRGBA(image.Rect(0, 0, 1000, 800)), fields, opts)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(prep.Resized, float64(prep.Scale), prep.Mode, len(prep.Request.BBoxInfo))

	merged, done, err := p.Finalize(prep, surface.Finished([]surface.Entry{
		{BBox: []float64{10, 10, 50, 50}, LabelID: 0, Label: "RED"},
	}))
	if err != nil {
		log.Fatal(err)
	}
	data, _ := merged.MarshalJSON()
	fmt.Println(done, string(data))
	// Output:
	// 512x410 1.953125 fresh 0
	// true {"RED":{"bbox":{"height":97.65625,"width":97.65625,"x":19.53125,"y":19.53125},"classification":"abc","label_id":0},"GREEN":{"classification":"def"}}
}
