package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Shape names, in the order they are tried.
const (
	ShapeStatusCode        = "status_code"
	ShapeStatusObject      = "status_object"
	ShapePaymentStatusCode = "payment_status_code"
	ShapePaymentStatus     = "payment_status"
)

const (
	successStatusCode        = 1000
	successStatusObjectCode  = "000"
	successPaymentStatusCode = 2
)

var successPaymentStatuses = map[string]bool{
	"success":    true,
	"successful": true,
	"paid":       true,
	"completed":  true,
	"complete":   true,
	"valid":      true,
	"validated":  true,
}

// detector reports whether the shape is present in the body and, if so,
// whether it signals success.
type detector func(body map[string]interface{}) (present, success bool)

type shape struct {
	name   string
	detect detector
}

var shapes = []shape{
	{ShapeStatusCode, detectStatusCode},
	{ShapeStatusObject, detectStatusObject},
	{ShapePaymentStatusCode, detectPaymentStatusCode},
	{ShapePaymentStatus, detectPaymentStatus},
}

// Classify maps a decoded gateway body to a verdict. The first shape that
// signals success wins. The verdict is failure only when some shape is
// present and none signals success, and indeterminate when no known shape
// is present.
func Classify(body map[string]interface{}) Result {
	res := Result{Verdict: VerdictIndeterminate}
	firstPresent := ""

	for _, s := range shapes {
		res.AttemptedShapes = append(res.AttemptedShapes, s.name)
		present, success := s.detect(body)
		if !present {
			continue
		}
		if success {
			res.Verdict = VerdictSuccess
			res.MatchedShape = s.name
			return res
		}
		if firstPresent == "" {
			firstPresent = s.name
		}
	}

	if firstPresent != "" {
		res.Verdict = VerdictFailure
		res.MatchedShape = firstPresent
	}
	return res
}

// ClassifyJSON decodes raw and classifies it. A body that is not a JSON
// object is indeterminate.
func ClassifyJSON(raw []byte) Result {
	var body map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || body == nil {
		res := Indeterminate(&CheckError{Code: CheckErrParse, Message: "gateway body is not a JSON object"}, nil)
		if json.Valid(raw) {
			res.Payload = append(json.RawMessage(nil), raw...)
		}
		return res
	}

	res := Classify(body)
	res.Payload = append(json.RawMessage(nil), raw...)
	return res
}

func detectStatusCode(body map[string]interface{}) (bool, bool) {
	n, ok := number(body["statusCode"])
	if !ok {
		return false, false
	}
	return true, n == successStatusCode
}

func detectStatusObject(body map[string]interface{}) (bool, bool) {
	status, ok := data(body)["status"].(map[string]interface{})
	if !ok {
		return false, false
	}
	code, ok := status["code"]
	if !ok || code == nil {
		return false, false
	}
	return true, text(code) == successStatusObjectCode
}

func detectPaymentStatusCode(body map[string]interface{}) (bool, bool) {
	n, ok := number(data(body)["payment_status_code"])
	if !ok {
		return false, false
	}
	return true, n == successPaymentStatusCode
}

func detectPaymentStatus(body map[string]interface{}) (bool, bool) {
	v, ok := data(body)["payment_status"].(string)
	if !ok {
		return false, false
	}
	return true, successPaymentStatuses[strings.ToLower(strings.TrimSpace(v))]
}

// data returns the nested "data" object. Indexing the nil map of an absent
// object yields nil.
func data(body map[string]interface{}) map[string]interface{} {
	m, _ := body["data"].(map[string]interface{})
	return m
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
