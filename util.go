// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

import (
	"math"
	"strconv"
)

// normalizeKey renders a primary key value in canonical string form, so the
// int 47 a schema coercion produces, the float64 47 raw JSON decoding
// produces, and the string "47" all index the same cache entry. Machine
// system ids pass through as-is.
func normalizeKey(value interface{}) (string, bool) {
	switch key := value.(type) {
	case string:
		return key, key != ""
	case int:
		return strconv.Itoa(key), true
	case int64:
		return strconv.FormatInt(key, 10), true
	case float64:
		if key != math.Trunc(key) {
			return "", false
		}
		return strconv.FormatInt(int64(key), 10), true
	}
	return "", false
}

func convertToStringSlice(field interface{}) []string {
	if field == nil {
		return nil
	}
	// Called after a schema coercion, so the casts are safe.
	fieldSlice := field.([]interface{})
	result := make([]string, len(fieldSlice))
	for i, value := range fieldSlice {
		result[i] = value.(string)
	}
	return result
}

func convertToStringMap(field interface{}) map[string]string {
	if field == nil {
		return nil
	}
	fieldMap := field.(map[string]interface{})
	result := make(map[string]string, len(fieldMap))
	for key, value := range fieldMap {
		result[key] = value.(string)
	}
	return result
}
