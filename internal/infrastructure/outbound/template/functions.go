package template

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/component"
)

func buildExprEnv(ctx advisory.RenderContext) exprEnv {
	return exprEnv{
		Refcode:   ctx.Refcode,
		Component: ctx.Component,
		FreeText:  ctx.FreeText,
		Model:     ctx.ModelKey,
		Category:  ctx.Category,
		Timestamp: ctx.Now,
		NowFormat: func(layout string) string {
			return formatNow(ctx.Now, layout)
		},
		Family: func() string {
			return component.Family(ctx.Refcode)
		},
		ToJSON: toJSONString,
	}
}

func formatNow(now, layout string) string {
	t, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return now
	}
	return t.Format(layout)
}

func toJSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
