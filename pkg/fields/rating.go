package fields

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// RatingMax is the number of stars a rating field offers.
const RatingMax = 5

// Rating is a star rating. It has no configurable options.
func Rating() Definition {
	return Definition{
		Type: model.FieldTypeRating,
		Defaults: func() model.Props {
			return model.Props{Label: "评分"}
		},
		Renderer:     templateRenderer("fields.rating", "rating", ratingStars),
		Configurator: emptyConfigurator{},
		Answer:       ratingAnswer{},
	}
}

func ratingStars(_ model.Field, payload map[string]any) {
	stars := make([]string, 0, RatingMax)
	for idx := 1; idx <= RatingMax; idx++ {
		stars = append(stars, strconv.Itoa(idx))
	}
	payload["stars"] = stars
}

type ratingAnswer struct{}

func (ratingAnswer) Schema(model.Field) *openapi3.Schema {
	return openapi3.NewIntegerSchema().WithMin(1).WithMax(float64(RatingMax))
}

func (ratingAnswer) Decode(_ model.Field, raw string) any {
	if value, err := ParseNumber(raw); err == nil {
		return value
	}
	return raw
}

func (ratingAnswer) Prompt(ctx context.Context, field model.Field, p Prompter) (any, bool, error) {
	options := make([]string, 0, RatingMax)
	for star := 1; star <= RatingMax; star++ {
		options = append(options, strings.Repeat("★", star))
	}
	idx, err := p.Choose(ctx, Choice{Message: PromptLabel(field), Options: options})
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(options) {
		return nil, false, fmt.Errorf("fields: rating selection %d out of range", idx)
	}
	return idx + 1, true, nil
}
