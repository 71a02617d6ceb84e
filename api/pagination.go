// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount = 100
	MaxPaginationCount     = 100
	DefaultPaginationPage  = 1
	PaginationOrderAsc     = "asc"
	PaginationOrderDesc    = "desc"

	headerCountTotal = "X-Pagination-Count-Total"
	headerPageTotal  = "X-Pagination-Page-Total"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams contains parsed pagination query values
type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// ParsePagination reads the count, page and order query values. Count is
// clamped to 1..MaxPaginationCount and page to at least 1.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	query := r.URL.Query()
	count, err := queryInt(query.Get("count"), DefaultPaginationCount)
	if err != nil {
		return PaginationParams{}, err
	}
	page, err := queryInt(query.Get("page"), DefaultPaginationPage)
	if err != nil {
		return PaginationParams{}, err
	}
	order := PaginationOrderAsc
	if orderParam := query.Get("order"); orderParam != "" {
		order = strings.ToLower(orderParam)
		if order != PaginationOrderAsc && order != PaginationOrderDesc {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	return PaginationParams{
		Count: min(max(count, 1), MaxPaginationCount),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

func queryInt(val string, def int) (int, error) {
	if val == "" {
		return def, nil
	}
	ret, err := strconv.Atoi(val)
	if err != nil {
		return 0, ErrInvalidPaginationParameters
	}
	return ret, nil
}

// SetPaginationHeaders sets the total item and page count headers
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	if params.Count < 1 {
		params.Count = DefaultPaginationCount
	}
	totalPages := (totalItems + params.Count - 1) / params.Count
	w.Header().Set(headerCountTotal, strconv.Itoa(totalItems))
	w.Header().Set(headerPageTotal, strconv.Itoa(totalPages))
}
