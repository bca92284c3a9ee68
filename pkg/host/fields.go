package host

import (
	"reflect"

	"github.com/pkg/errors"
)

// ErrNoSuchField is returned when an object has no field of that name.
var ErrNoSuchField = errors.New("no such field")

// Field reads a struct field of obj, following pointers. name is matched
// against `host:"..."` tags first and then against exported field names.
func Field(obj any, name string) (any, error) {
	v, err := fieldValue(obj, name)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// IntField reads an integer field as int.
func IntField(obj any, name string) (int, error) {
	v, err := fieldValue(obj, name)
	if err != nil {
		return 0, err
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), nil
	default:
		return 0, errors.Errorf("field %s is %s, not an integer", name, v.Type())
	}
}

// SetField assigns value to the exported field name of the struct obj
// points to.
func SetField(obj any, name string, value any) error {
	v, err := fieldValue(obj, name)
	if err != nil {
		return err
	}
	if !v.CanSet() {
		return errors.Errorf("field %s is not settable", name)
	}

	nv := reflect.ValueOf(value)
	if !nv.IsValid() {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	if !nv.Type().AssignableTo(v.Type()) {
		return errors.Errorf("cannot assign %s to field %s of type %s", nv.Type(), name, v.Type())
	}
	v.Set(nv)
	return nil
}

func fieldValue(obj any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return reflect.Value{}, errors.Errorf("nil object reading field %s", name)
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, errors.Errorf("nil object reading field %s", name)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("%s is not a struct", v.Type())
	}

	sf, ok := lookupField(v.Type(), name)
	if !ok {
		return reflect.Value{}, errors.Wrapf(ErrNoSuchField, "%s.%s", v.Type(), name)
	}
	return v.FieldByIndex(sf.Index), nil
}

func lookupField(t reflect.Type, name string) (reflect.StructField, bool) {
	for _, sf := range reflect.VisibleFields(t) {
		if sf.IsExported() && sf.Tag.Get("host") == name {
			return sf, true
		}
	}
	sf, ok := t.FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.StructField{}, false
	}
	return sf, true
}
