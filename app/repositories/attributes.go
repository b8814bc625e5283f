package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/stockroom/pkg/validate"
)

// FieldKind selects the form control and value normalisation of a field.
type FieldKind string

const (
	KindText  FieldKind = "text"
	KindBool  FieldKind = "bool"
	KindColor FieldKind = "color"
)

// Field is one editable column of a catalog attribute.
type Field struct {
	Name   string
	Label  string
	Rules  string
	Unique bool
	Kind   FieldKind
}

// Reference is a column in another table pointing at an attribute row.
type Reference struct {
	Table  string
	Column string
}

// Attribute describes a catalog attribute table. One generic controller
// serves every Attribute in Attributes().
type Attribute struct {
	Key        string // route segment, e.g. "styles"
	Singular   string // "Style"
	Table      string
	Fields     []Field
	References []Reference
}

// Title is the plural display name, e.g. "Styles".
func (a Attribute) Title() string { return strings.ToUpper(a.Key[:1]) + a.Key[1:] }

// UniqueColumns lists the fields carrying a unique constraint.
func (a Attribute) UniqueColumns() []string {
	var out []string
	for _, f := range a.Fields {
		if f.Unique {
			out = append(out, f.Name)
		}
	}
	return out
}

func nameField() Field {
	return Field{Name: "name", Label: "Name", Rules: "required,max=100", Unique: true, Kind: KindText}
}

var attributes = []Attribute{
	{
		Key: "styles", Singular: "Style", Table: "styles",
		Fields:     []Field{nameField()},
		References: []Reference{{Table: "products", Column: "style_id"}},
	},
	{
		Key: "categories", Singular: "Category", Table: "categories",
		Fields:     []Field{nameField()},
		References: []Reference{{Table: "products", Column: "category_id"}},
	},
	{
		Key: "brands", Singular: "Brand", Table: "brands",
		Fields: []Field{
			nameField(),
			{Name: "is_own_brand", Label: "Is Own Brand?", Rules: "boolean", Kind: KindBool},
		},
		References: []Reference{{Table: "products", Column: "brand_id"}},
	},
	{
		Key: "materials", Singular: "Material", Table: "materials",
		Fields:     []Field{nameField()},
		References: []Reference{{Table: "products", Column: "material_id"}},
	},
	{
		Key: "colors", Singular: "Color", Table: "colors",
		Fields: []Field{
			{Name: "name", Label: "Color Name", Rules: "required,max=100", Unique: true, Kind: KindText},
			{Name: "hex_code", Label: "Hex Code", Rules: "required,size=7,regex=^#[0-9A-Fa-f]{6}$", Unique: true, Kind: KindColor},
		},
		References: []Reference{{Table: "product_colors", Column: "color_id"}},
	},
}

// Attributes returns the catalog attribute descriptors in menu order.
func Attributes() []Attribute {
	out := make([]Attribute, len(attributes))
	copy(out, attributes)
	return out
}

// AttributeByKey looks up a descriptor by route segment.
func AttributeByKey(key string) (Attribute, bool) {
	for _, a := range attributes {
		if a.Key == key {
			return a, true
		}
	}
	return Attribute{}, false
}

// Record is one attribute row with its values rendered as strings, the
// form a template or form re-render needs. Bool fields hold "true"/"false".
type Record struct {
	ID        uint              `json:"id"`
	Values    map[string]string `json:"values"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Get returns the value of column name.
func (r Record) Get(name string) string { return r.Values[name] }

// AttributeRepository reads and writes attribute rows as column maps.
type AttributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository returns a repository on db.
func NewAttributeRepository(db *gorm.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *AttributeRepository) WithTx(tx *gorm.DB) *AttributeRepository {
	return &AttributeRepository{db: tx}
}

func (r *AttributeRepository) columns(a Attribute) []string {
	cols := []string{"id", "created_at", "updated_at"}
	for _, f := range a.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// List returns every row ordered by name.
func (r *AttributeRepository) List(ctx context.Context, a Attribute) ([]Record, error) {
	var rows []map[string]interface{}
	err := r.db.WithContext(ctx).Table(a.Table).Select(r.columns(a)).Order("name").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: list %s: %w", a.Table, err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(a, row))
	}
	return out, nil
}

// Count returns the number of rows.
func (r *AttributeRepository) Count(ctx context.Context, a Attribute) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(a.Table).Count(&n).Error
	return n, err
}

// Find returns the row with id or gorm.ErrRecordNotFound.
func (r *AttributeRepository) Find(ctx context.Context, a Attribute, id uint) (*Record, error) {
	var rows []map[string]interface{}
	err := r.db.WithContext(ctx).Table(a.Table).Select(r.columns(a)).Where("id = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: find %s: %w", a.Table, err)
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	rec := toRecord(a, rows[0])
	return &rec, nil
}

// Taken reports whether another row (id != except) has column = value.
func (r *AttributeRepository) Taken(ctx context.Context, a Attribute, column, value string, except uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Table(a.Table).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts values and returns the new row id.
func (r *AttributeRepository) Create(ctx context.Context, a Attribute, values map[string]interface{}) (uint, error) {
	now := time.Now()
	row := map[string]interface{}{"created_at": now, "updated_at": now}
	for k, v := range values {
		row[k] = v
	}
	db := r.db.WithContext(ctx)
	if err := db.Table(a.Table).Create(row).Error; err != nil {
		return 0, err
	}

	var id uint
	err := db.Table(a.Table).Select("id").Where("name = ?", values["name"]).Row().Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repositories: read back %s id: %w", a.Table, err)
	}
	return id, nil
}

// Update writes values to row id. Returns gorm.ErrRecordNotFound when the
// row is gone.
func (r *AttributeRepository) Update(ctx context.Context, a Attribute, id uint, values map[string]interface{}) error {
	row := map[string]interface{}{"updated_at": time.Now()}
	for k, v := range values {
		row[k] = v
	}
	res := r.db.WithContext(ctx).Table(a.Table).Where("id = ?", id).Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// References counts rows in other tables that point at id.
func (r *AttributeRepository) References(ctx context.Context, a Attribute, id uint) (int64, error) {
	var total int64
	for _, ref := range a.References {
		var n int64
		err := r.db.WithContext(ctx).Table(ref.Table).
			Where(clause.Eq{Column: clause.Column{Name: ref.Column}, Value: id}).
			Count(&n).Error
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Delete removes row id.
func (r *AttributeRepository) Delete(ctx context.Context, a Attribute, id uint) error {
	res := r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: a.Table}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Options returns id → name pairs for select boxes, ordered by name.
func (r *AttributeRepository) Options(ctx context.Context, a Attribute) ([]Option, error) {
	var opts []Option
	err := r.db.WithContext(ctx).Table(a.Table).Select("id", "name").Order("name").Scan(&opts).Error
	return opts, err
}

// Option is an id/name pair.
type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func toRecord(a Attribute, row map[string]interface{}) Record {
	rec := Record{Values: make(map[string]string, len(a.Fields))}
	rec.ID = toUint(row["id"])
	rec.CreatedAt = toTime(row["created_at"])
	rec.UpdatedAt = toTime(row["updated_at"])
	for _, f := range a.Fields {
		v := row[f.Name]
		if f.Kind == KindBool {
			b, _ := validate.ParseBool(toString(v))
			rec.Values[f.Name] = fmt.Sprint(b)
			continue
		}
		rec.Values[f.Name] = toString(v)
	}
	return rec
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

func toUint(v interface{}) uint {
	switch x := v.(type) {
	case int64:
		return uint(x)
	case int32:
		return uint(x)
	case int:
		return uint(x)
	case uint:
		return x
	case uint64:
		return uint(x)
	case uint32:
		return uint(x)
	}
	var n uint
	_, _ = fmt.Sscan(toString(v), &n)
	return n
}

func toTime(v interface{}) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
