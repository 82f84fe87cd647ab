package provider

// generated with gopkg.in/reform.v1

import (
	"fmt"
	"strings"

	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/parse"
)

type donationOrdersTableType struct {
	s parse.StructInfo
	z []interface{}
}

// Schema returns a schema name in SQL database ("paygate").
func (v *donationOrdersTableType) Schema() string {
	return v.s.SQLSchema
}

// Name returns a view or table name in SQL database ("donation_orders").
func (v *donationOrdersTableType) Name() string {
	return v.s.SQLName
}

// Columns returns a new slice of column names for that view or table in SQL database.
func (v *donationOrdersTableType) Columns() []string {
	return []string{"order_number", "payment_system_name", "raw_order_status", "amount", "currency", "demo", "notified_at", "created_at", "updated_at"}
}

// NewStruct makes a new struct for that view or table.
func (v *donationOrdersTableType) NewStruct() reform.Struct {
	return new(DonationOrders)
}

// NewRecord makes a new record for that table.
func (v *donationOrdersTableType) NewRecord() reform.Record {
	return new(DonationOrders)
}

// PKColumnIndex returns an index of primary key column for that table in SQL database.
func (v *donationOrdersTableType) PKColumnIndex() uint {
	return uint(v.s.PKFieldIndex)
}

// DonationOrdersTable represents donation_orders view or table in SQL database.
var DonationOrdersTable = &donationOrdersTableType{
	s: parse.StructInfo{Type: "DonationOrders", SQLSchema: "paygate", SQLName: "donation_orders", Fields: []parse.FieldInfo{{Name: "OrderNumber", Type: "string", Column: "order_number"}, {Name: "PaymentSystemName", Type: "Provider", Column: "payment_system_name"}, {Name: "RawOrderStatus", Type: "string", Column: "raw_order_status"}, {Name: "Amount", Type: "string", Column: "amount"}, {Name: "Currency", Type: "string", Column: "currency"}, {Name: "Demo", Type: "bool", Column: "demo"}, {Name: "NotifiedAt", Type: "*time.Time", Column: "notified_at"}, {Name: "CreatedAt", Type: "time.Time", Column: "created_at"}, {Name: "UpdatedAt", Type: "time.Time", Column: "updated_at"}}, PKFieldIndex: 0},
	z: new(DonationOrders).Values(),
}

// String returns a string representation of this struct or record.
func (s DonationOrders) String() string {
	res := make([]string, 9)
	res[0] = "OrderNumber: " + reform.Inspect(s.OrderNumber, true)
	res[1] = "PaymentSystemName: " + reform.Inspect(s.PaymentSystemName, true)
	res[2] = "RawOrderStatus: " + reform.Inspect(s.RawOrderStatus, true)
	res[3] = "Amount: " + reform.Inspect(s.Amount, true)
	res[4] = "Currency: " + reform.Inspect(s.Currency, true)
	res[5] = "Demo: " + reform.Inspect(s.Demo, true)
	res[6] = "NotifiedAt: " + reform.Inspect(s.NotifiedAt, true)
	res[7] = "CreatedAt: " + reform.Inspect(s.CreatedAt, true)
	res[8] = "UpdatedAt: " + reform.Inspect(s.UpdatedAt, true)
	return strings.Join(res, ", ")
}

// Values returns a slice of struct or record field values.
// Returned interface{} values are never untyped nils.
func (s *DonationOrders) Values() []interface{} {
	return []interface{}{
		s.OrderNumber,
		s.PaymentSystemName,
		s.RawOrderStatus,
		s.Amount,
		s.Currency,
		s.Demo,
		s.NotifiedAt,
		s.CreatedAt,
		s.UpdatedAt,
	}
}

// Pointers returns a slice of pointers to struct or record fields.
// Returned interface{} values are never untyped nils.
func (s *DonationOrders) Pointers() []interface{} {
	return []interface{}{
		&s.OrderNumber,
		&s.PaymentSystemName,
		&s.RawOrderStatus,
		&s.Amount,
		&s.Currency,
		&s.Demo,
		&s.NotifiedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

// View returns View object for that struct.
func (s *DonationOrders) View() reform.View {
	return DonationOrdersTable
}

// Table returns Table object for that record.
func (s *DonationOrders) Table() reform.Table {
	return DonationOrdersTable
}

// PKValue returns a value of primary key for that record.
// Returned interface{} value is never untyped nil.
func (s *DonationOrders) PKValue() interface{} {
	return s.OrderNumber
}

// PKPointer returns a pointer to primary key field for that record.
// Returned interface{} value is never untyped nil.
func (s *DonationOrders) PKPointer() interface{} {
	return &s.OrderNumber
}

// HasPK returns true if record has non-zero primary key set, false otherwise.
func (s *DonationOrders) HasPK() bool {
	return s.OrderNumber != DonationOrdersTable.z[DonationOrdersTable.s.PKFieldIndex]
}

// SetPK sets record primary key.
func (s *DonationOrders) SetPK(pk interface{}) {
	if str, ok := pk.(string); ok {
		s.OrderNumber = str
	} else {
		s.OrderNumber = pk.(string)
	}
}

// check interfaces
var (
	_ reform.View   = DonationOrdersTable
	_ reform.Struct = new(DonationOrders)
	_ reform.Table  = DonationOrdersTable
	_ reform.Record = new(DonationOrders)
	_ fmt.Stringer  = new(DonationOrders)
)

func init() {
	parse.AssertUpToDate(&DonationOrdersTable.s, new(DonationOrders))
}
