package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Spok95/factory/internal/domain/errs"
	"github.com/Spok95/factory/internal/domain/slug"
	"github.com/gorilla/mux"
)

const (
	defaultLimit = 1000
	maxLimit     = 1000
	maxBodyBytes = 1 << 20
	maxFileBytes = 10 << 20
)

type page struct {
	Offset int
	Limit  int
}

func pageOf(r *http.Request) (page, error) {
	p := page{Offset: 0, Limit: defaultLimit}
	q := r.URL.Query()
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, errs.Invalid("offset", "must be a non-negative integer")
		}
		p.Offset = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxLimit {
			return p, errs.Invalid("limit", "must be an integer between 0 and 1000")
		}
		p.Limit = n
	}
	return p, nil
}

func refOf(r *http.Request, name string) slug.Ref {
	return slug.Parse(mux.Vars(r)[name])
}

// decode читает JSON-тело в v. Битый JSON — ошибка валидации, как и
// пустое тело.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errs.Invalid("body", "request body is empty")
		case errors.As(err, &tooBig):
			return errs.Invalid("body", "request body is too large")
		default:
			return errs.Invalid("body", err.Error())
		}
	}
	return nil
}
