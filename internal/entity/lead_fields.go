package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var ErrUnknownField = errors.New("unknown lead field")

// EditableLeadFields names every field a lead update may write. Names are
// the column names, which are also the JSON names. Identity, status and
// timestamps are never listed.
var EditableLeadFields []string

var leadFieldIndex = map[string][]int{}

func init() {
	collectLeadFields(reflect.TypeOf(Lead{}), nil)
}

func collectLeadFields(t reflect.Type, prefix []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if f.Anonymous {
			collectLeadFields(f.Type, index)
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "", "-", "id", "status", "status_history", "created_at", "updated_at":
			continue
		}
		EditableLeadFields = append(EditableLeadFields, name)
		leadFieldIndex[name] = index
	}
}

func ValidLeadField(name string) bool {
	_, ok := leadFieldIndex[name]
	return ok
}

// ChangedLeadFields lists the editable fields whose values differ between
// before and after, in EditableLeadFields order.
func ChangedLeadFields(before, after *Lead) []string {
	b := reflect.ValueOf(before).Elem()
	a := reflect.ValueOf(after).Elem()
	var changed []string
	for _, name := range EditableLeadFields {
		idx := leadFieldIndex[name]
		if !reflect.DeepEqual(b.FieldByIndex(idx).Interface(), a.FieldByIndex(idx).Interface()) {
			changed = append(changed, name)
		}
	}
	return changed
}

// CopyLeadFields sets the named fields of dst from src. Pointer and slice
// values are shared, not cloned.
func CopyLeadFields(dst, src *Lead, fields []string) error {
	d := reflect.ValueOf(dst).Elem()
	s := reflect.ValueOf(src).Elem()
	for _, name := range fields {
		idx, ok := leadFieldIndex[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		d.FieldByIndex(idx).Set(s.FieldByIndex(idx))
	}
	return nil
}
