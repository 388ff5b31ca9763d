package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/crudlab/internal/shared/domain"
	"github.com/davicafu/crudlab/pkg/utils"
)

// ParseQuery translates a raw query string into a repository query.
// Reserved parameters: offset, limit, sort (repeatable, ±field) and
// operator (and/or); every other parameter is a filter criterion in the
// field__op micro-DSL. The raw string is walked pair by pair so filter
// order is preserved; url.Values would lose it.
func ParseQuery(rawQuery string) (domain.Query, error) {
	var q domain.Query
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return q, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return q, err
		}

		switch key {
		case "offset":
			q.Offset, err = strconv.Atoi(value)
			if err != nil {
				return q, errors.New("invalid offset")
			}
		case "limit":
			q.Limit, err = strconv.Atoi(value)
			if err != nil {
				return q, errors.New("invalid limit")
			}
		case "sort":
			q.Sort = append(q.Sort, value)
		case "operator":
			switch strings.ToLower(value) {
			case "and":
				q.Operator = domain.OpAnd
			case "or":
				q.Operator = domain.OpOr
			default:
				return q, errors.New("invalid operator, use and/or")
			}
		default:
			typed, err := typedFilterValue(key, value)
			if err != nil {
				return q, err
			}
			q.Filters = append(q.Filters, domain.F(key, typed))
		}
	}
	return q, nil
}

// typedFilterValue coerces the string value for the operators whose
// shape is not a plain scalar: lists and booleans.
func typedFilterValue(key, value string) (any, error) {
	switch {
	case strings.HasSuffix(key, "__in"), strings.HasSuffix(key, "__not_in"):
		parts := strings.Split(value, ",")
		list := make([]any, 0, len(parts))
		for _, p := range parts {
			list = append(list, p)
		}
		return list, nil
	case strings.HasSuffix(key, "__isnull"), strings.HasSuffix(key, "__isempty"):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.New("invalid boolean for " + key)
		}
		return b, nil
	default:
		return value, nil
	}
}

// RespondError maps the typed taxonomy onto HTTP statuses.
func RespondError(c *gin.Context, err error) {
	switch {
	case domain.IsMissing(err):
		utils.SendError(c, http.StatusNotFound, err.Error())
	case domain.IsUnique(err), domain.IsConflict(err):
		utils.SendError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidFilterOperator),
		errors.Is(err, domain.ErrInvalidFilterAttribute):
		utils.SendError(c, http.StatusBadRequest, err.Error())
	default:
		utils.SendError(c, http.StatusInternalServerError, err.Error())
	}
}
