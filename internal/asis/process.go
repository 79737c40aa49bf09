package asis

import "asis-server/internal/domain"

// Process runs the whole pipeline on a raw document: parse, transform and
// render. The status line must carry a numeric status code.
func Process(raw []byte) (domain.Rendered, error) {
	resp, err := Parse(raw)
	if err != nil {
		return domain.Rendered{}, err
	}
	code, reason, err := ParseStatus(resp.StatusLine)
	if err != nil {
		return domain.Rendered{}, err
	}

	plan := PlanFor(resp)
	out, err := Apply(resp, plan)
	if err != nil {
		return domain.Rendered{}, err
	}

	r := domain.Rendered{
		StatusCode:  code,
		Reason:      reason,
		Response:    out,
		Bytes:       Render(out),
		Compression: string(plan.Compression),
		Charset:     plan.Charset,
	}
	if plan.Unsupported() {
		r.UnsupportedEncoding = plan.Encoding
	}
	return r, nil
}
