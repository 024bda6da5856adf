package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// decodeResult parses a response body. It returns the names of optional
// fields that were present but dropped for breaking the contract.
func decodeResult(raw []byte, base *url.URL) (Result, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Result{}, nil, fmt.Errorf("%w: body is not a JSON object", ErrContract)
	}

	r := Result{fields: fields}
	var dropped []string

	if v, ok := fields["success"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &r.Success); err != nil {
			return Result{}, nil, fmt.Errorf("%w: success is not a boolean", ErrContract)
		}
	}

	if !decodeOptional(fields, "message", &r.Message) {
		dropped = append(dropped, "message")
	}
	if !decodeOptional(fields, "details", &r.Details) {
		dropped = append(dropped, "details")
	}

	var show bool
	if v, ok := fields["showResendButton"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &show); err == nil {
			r.ShowResend = &show
		} else {
			dropped = append(dropped, "showResendButton")
		}
	}

	if v, ok := fields["actionLink"]; ok && !isNull(v) {
		var link ActionLink
		if err := json.Unmarshal(v, &link); err == nil && strings.TrimSpace(link.Target) != "" && strings.TrimSpace(link.Text) != "" {
			r.ActionLink = &link
		} else {
			dropped = append(dropped, "actionLink")
		}
	}

	var redirect string
	if !decodeOptional(fields, "redirectUrl", &redirect) {
		dropped = append(dropped, "redirectUrl")
	} else if redirect != "" {
		if local, ok := sameOriginPath(redirect, base); ok {
			r.RedirectURL = local
		} else {
			dropped = append(dropped, "redirectUrl")
		}
	}

	return r, dropped, nil
}

// decodeOptional fills dst from a string field. It returns false only when
// the field is present, non-null and not a string.
func decodeOptional(fields map[string]json.RawMessage, name string, dst *string) bool {
	v, ok := fields[name]
	if !ok || isNull(v) {
		return true
	}
	return json.Unmarshal(v, dst) == nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// sameOriginPath accepts "/path" style targets and absolute URLs on the API
// host, returning the path form. Anything else would navigate off-site.
func sameOriginPath(target string, base *url.URL) (string, bool) {
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", false
	}
	if strings.HasPrefix(target, "/") {
		return target, true
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	if base == nil || !strings.EqualFold(u.Host, base.Host) || u.Scheme != base.Scheme {
		return "", false
	}
	out := u.EscapedPath()
	if out == "" {
		out = "/"
	}
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}
	return out, true
}
