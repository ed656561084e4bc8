package rdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type OrderItem struct {
	ItemID    int64     `rdb:"item_id,primary"`
	OrderID   int64     `rdb:"order_id,required"`
	Price     float64   `rdb:"price,type=float,required"`
	Title     string    `rdb:"title,size=64,default='untitled'"`
	Paid      bool      `rdb:",default=true"`
	CreatedAt time.Time `rdb:"created_at"`
	Extra     map[string]any
	Internal  string `rdb:"-"`
	hidden    string
}

type customer struct {
	ID   int64  `rdb:"id"`
	Name string `rdb:"name,required"`
}

func (customer) TableName() string { return "crm.customers" }

type tagged struct {
	_  struct{} `table:"tagged_rows"`
	ID int64
}

func TestNewDescriptor(t *testing.T) {
	d, err := NewDescriptor("products", []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, "products", d.Name())
	assert.Equal(t, "id", d.PrimaryKey())
	assert.True(t, d.Timestamps())
	createdAt, updatedAt := d.TimestampFields()
	assert.Equal(t, "created_at", createdAt)
	assert.Equal(t, "updated_at", updatedAt)
	assert.Equal(t, []string{"name"}, d.Required())

	d, err = NewDescriptor("shop.products", nil,
		WithName("Product"),
		WithPrimaryKey("product_id"),
		WithTimestamps(false),
		WithTimestampFields("inserted", "modified"),
		WithFields(FieldDefinition{Name: "price", Type: FieldTypeFloat}),
	)
	require.NoError(t, err)
	assert.Equal(t, "Product", d.Name())
	assert.Equal(t, "product_id", d.PrimaryKey())
	assert.False(t, d.Timestamps())
	createdAt, updatedAt = d.TimestampFields()
	assert.Equal(t, "inserted", createdAt)
	assert.Equal(t, "modified", updatedAt)

	ft, ok := d.FieldType("price")
	assert.True(t, ok)
	assert.Equal(t, FieldTypeFloat, ft)
	_, ok = d.FieldType("name")
	assert.False(t, ok)

	for _, table := range []string{"", "1products", "products; DROP TABLE users", "a.b.c"} {
		_, err := NewDescriptor(table, nil)
		assert.Error(t, err, table)
	}
	_, err = NewDescriptor("products", nil, WithPrimaryKey("id = 1"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustNewDescriptor("bad table", nil) })
}

func TestDescriptorImmutable(t *testing.T) {
	required := []string{"name"}
	d, err := NewDescriptor("products", required,
		WithFields(FieldDefinition{Name: "price", Type: FieldTypeFloat}))
	require.NoError(t, err)

	required[0] = "price"
	d.Required()[0] = "category"
	d.Fields()[0].Type = FieldTypeString

	assert.Equal(t, []string{"name"}, d.Required())
	assert.Equal(t, FieldTypeFloat, d.Fields()[0].Type)
	ft, ok := d.FieldType("price")
	assert.True(t, ok)
	assert.Equal(t, FieldTypeFloat, ft)
}

func TestDescriptorFromStruct(t *testing.T) {
	d, err := DescriptorFromStruct(&OrderItem{})
	require.NoError(t, err)
	assert.Equal(t, "order_items", d.Table())
	assert.Equal(t, "OrderItem", d.Name())
	assert.Equal(t, "item_id", d.PrimaryKey())
	assert.Equal(t, []string{"order_id", "price"}, d.Required())

	names := make([]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"item_id", "order_id", "price", "title", "paid", "created_at", "extra"}, names)

	byName := map[string]FieldDefinition{}
	for _, f := range d.Fields() {
		byName[f.Name] = f
	}
	assert.Equal(t, FieldTypeInt, byName["order_id"].Type)
	assert.Equal(t, FieldTypeFloat, byName["price"].Type)
	assert.Equal(t, 64, byName["title"].Size)
	assert.Equal(t, "untitled", byName["title"].Default)
	assert.Equal(t, true, byName["paid"].Default)
	assert.Equal(t, FieldTypeBool, byName["paid"].Type)
	assert.Equal(t, FieldTypeDate, byName["created_at"].Type)
	assert.Equal(t, FieldTypeJSON, byName["extra"].Type)

	d, err = DescriptorFromStruct(customer{}, WithTimestamps(false))
	require.NoError(t, err)
	assert.Equal(t, "crm.customers", d.Table())
	assert.Equal(t, "id", d.PrimaryKey())
	assert.False(t, d.Timestamps())

	d, err = DescriptorFromStruct(tagged{})
	require.NoError(t, err)
	assert.Equal(t, "tagged_rows", d.Table())

	_, err = DescriptorFromStruct(42)
	assert.Error(t, err)
}

func TestToSnakeCase(t *testing.T) {
	for in, out := range map[string]string{
		"ID":         "id",
		"OrderItem":  "order_item",
		"HTTPServer": "http_server",
		"CreatedAt":  "created_at",
		"userID":     "user_id",
		"name":       "name",
	} {
		assert.Equal(t, out, toSnakeCase(in), in)
	}
}
