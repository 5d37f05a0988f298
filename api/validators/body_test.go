package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
)

type bodyPayload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gt=0"`
}

func decode(body string) (bodyPayload, error) {
	var dest bodyPayload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dest, DecodeJSONBody(req, &dest)
}

func TestDecodeJSONBody(t *testing.T) {
	got, err := decode(`{"name":"rink","count":2}`)
	if err != nil || got.Name != "rink" || got.Count != 2 {
		t.Fatalf("unexpected decode %+v %v", got, err)
	}

	cases := map[string]string{
		"unknown field": `{"name":"rink","count":2,"price":"0.01"}`,
		"trailing":      `{"name":"rink","count":2}{"name":"again"}`,
		"missing name":  `{"count":2}`,
		"zero count":    `{"name":"rink","count":0}`,
		"not json":      `name=rink`,
	}
	for name, body := range cases {
		if _, err := decode(body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	_, err = decode(`{"count":0}`)
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["name"] != "is required" || details["count"] != "must be greater than 0" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", MaxJSONBody) + `","count":1}`
	if _, err := decode(body); !pkgerrors.IsCode(err, pkgerrors.CodeTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}
