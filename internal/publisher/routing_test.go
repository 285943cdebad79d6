package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"airsense/internal/domain"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		event  domain.Event
		want   string
	}{
		{"reading create", "airsense", domain.Event{Entity: domain.EntityReading, Action: domain.ActionCreate}, "airsense.reading.create"},
		{"article update", "airsense", domain.Event{Entity: domain.EntityArticle, Action: domain.ActionUpdate}, "airsense.article.update"},
		{"no prefix", "", domain.Event{Entity: domain.EntityProduct, Action: domain.ActionCreate}, "product.create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoutingKey(tt.prefix, &tt.event))
		})
	}
}
