package caplena

import (
	"fmt"
	"sort"
)

// FieldKind classifies how a schema field is materialized and exported.
type FieldKind int

// Field kinds.
const (
	// KindScalar stores the decoded JSON value as-is (strings, numbers,
	// booleans, plain lists and maps).
	KindScalar FieldKind = iota
	// KindObject stores a nested *Object materialized from Elem.
	KindObject
	// KindObjectList stores a []*Object materialized element-wise from Elem.
	KindObjectList
)

// Field is the static descriptor for one schema entry.
type Field struct {
	Name string
	Kind FieldKind
	// Mutable marks fields callers may reassign after materialization.
	Mutable bool
	// Required fields must be present in the input at materialization time.
	Required bool
	// Elem is the nested schema for KindObject and KindObjectList fields.
	Elem *Schema
}

// Schema is the compile-time-known field set of a resource type, including
// the subset of fields that is externally mutable.
type Schema struct {
	// Name identifies the resource type in error messages.
	Name string
	// Identified marks schemas whose objects carry an immutable identifier
	// taken from the input's "id" key.
	Identified bool

	fields []Field
	index  map[string]Field
}

// IDKey is the reserved export key for the identifier of identified
// resources. It is never part of a schema's declared field set.
const IDKey = "id"

// NewSchema declares the field set of an unidentified resource type.
func NewSchema(name string, fields ...Field) *Schema {
	schema := &Schema{
		Name:   name,
		fields: fields,
		index:  make(map[string]Field, len(fields)),
	}

	for _, field := range fields {
		schema.index[field.Name] = field
	}

	return schema
}

// NewResourceSchema declares the field set of an identified resource type.
func NewResourceSchema(name string, fields ...Field) *Schema {
	schema := NewSchema(name, fields...)
	schema.Identified = true

	return schema
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Lookup returns the descriptor for a declared field name.
func (s *Schema) Lookup(name string) (Field, bool) {
	field, ok := s.index[name]

	return field, ok
}

// Object is a schema-bound, partially-mutable value materialized from a JSON
// payload. It tracks which mutable fields have been locally modified since
// the last materialization and keeps a non-owning back-reference to the
// controller that produced it.
//
// Objects are not safe for concurrent mutation; the dirty set and field map
// assume a single writer per instance.
type Object struct {
	schema     *Schema
	id         string
	attrs      map[string]interface{}
	dirty      map[string]struct{}
	controller Controller
}

// BuildObj materializes one Object from a decoded JSON mapping. Unknown
// input keys are silently dropped; a missing required field or a nested
// field of the wrong shape fails with SchemaViolationError. The given
// controller, when non-nil, is attached to the object and propagated through
// the whole materialized subtree.
func BuildObj(schema *Schema, raw map[string]interface{}, controller Controller) (*Object, error) {
	obj := &Object{schema: schema}

	err := obj.RefreshFrom(raw)
	if err != nil {
		return nil, err
	}

	if controller != nil {
		obj.SetController(controller)
	}

	return obj, nil
}

// RefreshFrom replaces the object's state with a freshly materialized one,
// resetting the dirty set. Used after update calls to sync the object with
// what the API persisted.
func (o *Object) RefreshFrom(raw map[string]interface{}) error {
	attrs := make(map[string]interface{}, len(o.schema.fields))

	id := ""
	if o.schema.Identified {
		value, ok := raw[IDKey].(string)
		if !ok {
			return &SchemaViolationError{Schema: o.schema.Name, Field: IDKey, Reason: "identifier is missing or not a string"}
		}

		id = value
	}

	for _, field := range o.schema.fields {
		value, ok := raw[field.Name]
		if !ok {
			if field.Required {
				return &SchemaViolationError{Schema: o.schema.Name, Field: field.Name, Reason: "required field is missing"}
			}

			continue
		}

		materialized, err := o.materializeField(field, value)
		if err != nil {
			return err
		}

		attrs[field.Name] = materialized
	}

	o.id = id
	o.attrs = attrs
	o.dirty = make(map[string]struct{})

	return nil
}

func (o *Object) materializeField(field Field, value interface{}) (interface{}, error) {
	switch field.Kind {
	case KindObject:
		if value == nil {
			return nil, nil
		}

		nested, ok := value.(map[string]interface{})
		if !ok {
			return nil, &SchemaViolationError{Schema: o.schema.Name, Field: field.Name, Reason: "expected a JSON object"}
		}

		if field.Elem == nil {
			return nil, fmt.Errorf("field %q of %s: %w", field.Name, o.schema.Name, ErrElemSchemaUnset)
		}

		return BuildObj(field.Elem, nested, nil)
	case KindObjectList:
		if value == nil {
			return nil, nil
		}

		items, ok := value.([]interface{})
		if !ok {
			return nil, &SchemaViolationError{Schema: o.schema.Name, Field: field.Name, Reason: "expected a JSON array of objects"}
		}

		if field.Elem == nil {
			return nil, fmt.Errorf("field %q of %s: %w", field.Name, o.schema.Name, ErrElemSchemaUnset)
		}

		objects := make([]*Object, 0, len(items))

		for i, item := range items {
			nested, ok := item.(map[string]interface{})
			if !ok {
				return nil, &SchemaViolationError{
					Schema: o.schema.Name,
					Field:  field.Name,
					Reason: fmt.Sprintf("element %d is not a JSON object", i),
				}
			}

			nestedObj, err := BuildObj(field.Elem, nested, nil)
			if err != nil {
				return nil, err
			}

			objects = append(objects, nestedObj)
		}

		return objects, nil
	default:
		return value, nil
	}
}

// Schema returns the schema this object was materialized against.
func (o *Object) Schema() *Schema {
	return o.schema
}

// ID returns the immutable identifier of an identified resource, or an empty
// string for unidentified objects.
func (o *Object) ID() string {
	return o.id
}

// Get returns the stored value of a declared field. It fails for names
// outside the schema and for declared fields that were never set.
func (o *Object) Get(name string) (interface{}, error) {
	_, ok := o.schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("field %q of %s: %w", name, o.schema.Name, ErrUnknownField)
	}

	value, ok := o.attrs[name]
	if !ok {
		return nil, fmt.Errorf("field %q of %s: %w", name, o.schema.Name, ErrFieldNotSet)
	}

	return value, nil
}

// GetString returns a declared scalar field as a string.
func (o *Object) GetString(name string) (string, error) {
	value, err := o.Get(name)
	if err != nil {
		return "", err
	}

	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q of %s is %T, not a string", name, o.schema.Name, value)
	}

	return str, nil
}

// Set reassigns a mutable declared field and records it in the dirty set.
// Writes to immutable fields fail with ImmutableFieldError and leave the
// dirty set untouched.
func (o *Object) Set(name string, value interface{}) error {
	field, ok := o.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("field %q of %s: %w", name, o.schema.Name, ErrUnknownField)
	}

	if !field.Mutable {
		return &ImmutableFieldError{Field: name}
	}

	o.attrs[name] = value
	o.dirty[name] = struct{}{}

	return nil
}

// Unset rejects deletion of any declared field.
func (o *Object) Unset(name string) error {
	_, ok := o.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("field %q of %s: %w", name, o.schema.Name, ErrUnknownField)
	}

	return &ImmutableFieldError{Field: name}
}

// Dirty returns the sorted names of mutable fields modified since the last
// materialization. Resource-specific update logic uses this to know what to
// persist.
func (o *Object) Dirty() []string {
	names := make([]string, 0, len(o.dirty))
	for name := range o.dirty {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ClearDirty empties the dirty set, marking the object as persisted.
func (o *Object) ClearDirty() {
	o.dirty = make(map[string]struct{})
}

// Controller returns the dispatcher back-reference attached to this object.
func (o *Object) Controller() (Controller, error) {
	if o.controller == nil {
		return nil, &DetachedObjectError{Schema: o.schema.Name}
	}

	return o.controller, nil
}

// SetController attaches a controller to this object and propagates the same
// reference into every nested object it owns, directly or inside object
// lists, so a materialized subtree always shares one controller.
func (o *Object) SetController(controller Controller) {
	o.controller = controller

	for _, field := range o.schema.fields {
		value, ok := o.attrs[field.Name]
		if !ok {
			continue
		}

		switch nested := value.(type) {
		case *Object:
			if nested != nil {
				nested.SetController(controller)
			}
		case []*Object:
			for _, item := range nested {
				item.SetController(controller)
			}
		}
	}
}

// ToDict exports the object as a plain nested mapping: nested objects export
// themselves, object lists export element-wise, scalars pass through.
// Identified resources additionally carry their identifier under "id".
func (o *Object) ToDict() map[string]interface{} {
	out := make(map[string]interface{}, len(o.attrs)+1)

	for _, field := range o.schema.fields {
		value, ok := o.attrs[field.Name]
		if !ok {
			continue
		}

		out[field.Name] = exportValue(value)
	}

	if o.schema.Identified {
		out[IDKey] = o.id
	}

	return out
}

func exportValue(value interface{}) interface{} {
	switch nested := value.(type) {
	case *Object:
		if nested == nil {
			return nil
		}

		return nested.ToDict()
	case []*Object:
		items := make([]interface{}, 0, len(nested))
		for _, item := range nested {
			items = append(items, item.ToDict())
		}

		return items
	default:
		return value
	}
}

// String implements fmt.Stringer.
func (o *Object) String() string {
	if o.schema.Identified {
		return fmt.Sprintf("%s(id=%s)", o.schema.Name, o.id)
	}

	return o.schema.Name + "()"
}
