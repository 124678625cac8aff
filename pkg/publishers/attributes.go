package publishers

import (
	"strconv"
	"strings"
)

// eventAttributes are the routing fields every sink exposes next to the
// JSON body, so subscribers can filter without decoding it.
func eventAttributes(evt Event) map[string]string {
	attrs := map[string]string{
		"event_type": evt.Type,
		"slug":       evt.Slug,
		"category":   evt.Category,
		"source":     evt.Source,
		"featured":   strconv.FormatBool(evt.Featured),
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}

// isFIFO reports whether an SQS queue url or SNS topic arn is FIFO.
func isFIFO(target string) bool {
	return strings.HasSuffix(target, ".fifo")
}

// fifoGroup keeps one category in order on FIFO targets.
func fifoGroup(evt Event) string {
	if evt.Category != "" {
		return evt.Category
	}
	return "uncategorized"
}

// fifoDedupID lets FIFO targets drop re-sent events for the same article.
func fifoDedupID(evt Event) string {
	if evt.ArticleID != "" {
		return evt.ArticleID
	}
	return evt.Slug
}
