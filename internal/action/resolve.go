package action

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Resolve turns a Selector into exactly one live element within the given
// scope.
//
// If the selector targets an embedded frame, the ordered frame-boundary list
// is walked first, descending one frame level per entry. Within the final
// scope, each candidate selector is tried in priority order; the first one
// matching exactly one element wins. A candidate matching more than one
// element is logged as ambiguous and skipped rather than silently picking an
// arbitrary match, because the page may have changed between snapshot and
// resolution. When every candidate is empty or ambiguous the result is a
// *NotFoundError.
func Resolve(ctx context.Context, logger *zap.Logger, scope Scope, sel Selector) (Element, error) {
	if sel.InIFrame {
		if len(sel.IFrameParentSelectors) == 0 {
			return nil, &ValidationError{Field: "iframe_parent_css_selectors", Reason: "in_iframe is set but the frame-boundary list is empty"}
		}
		for _, frameSel := range sel.IFrameParentSelectors {
			inner, err := scope.Frame(ctx, frameSel)
			if err != nil {
				return nil, fmt.Errorf("descending into frame %q: %w", frameSel, err)
			}
			scope = inner
		}
	}

	candidates := sel.Candidates()
	for _, candidate := range candidates {
		el, count, err := scope.Query(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("querying %q: %w", candidate, err)
		}
		switch {
		case count == 1:
			return el, nil
		case count > 1:
			logger.Warn("Ambiguous selector candidate, skipping.",
				zap.String("selector", candidate),
				zap.Int("matches", count))
		}
	}

	return nil, &NotFoundError{Candidates: candidates}
}
