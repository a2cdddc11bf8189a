package typeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		dataType   string
		columnType string
		want       TargetKind
	}{
		{"json", "json", "json", KindJSON},
		{"jsonb", "jsonb", "", KindJSON},
		{"bytea", "bytea", "", KindBinary},
		{"blob", "blob", "blob", KindBinary},
		{"varbinary", "varbinary", "varbinary(255)", KindBinary},
		{"mssql image", "image", "", KindBinary},
		{"boolean", "boolean", "", KindBoolean},
		{"bool", "bool", "", KindBoolean},
		{"bit", "bit", "bit(1)", KindBoolean},
		{"tinyint(1)", "tinyint", "tinyint(1)", KindBoolean},
		{"tinyint(4)", "tinyint", "tinyint(4)", KindInteger},
		{"decimal", "decimal", "decimal(10,2)", KindDecimal},
		{"numeric", "numeric", "numeric(15,4)", KindDecimal},
		{"money", "money", "", KindDecimal},
		{"float", "float", "", KindFloat},
		{"double", "double", "double", KindFloat},
		{"real", "real", "", KindFloat},
		{"int", "int", "int(11)", KindInteger},
		{"bigint unsigned", "bigint", "bigint(20) unsigned", KindInteger},
		{"serial", "bigserial", "", KindInteger},
		{"year", "year", "year(4)", KindInteger},
		{"timestamp", "timestamp", "", KindTimestamp},
		{"timestamptz", "timestamp with time zone", "", KindTimestamp},
		{"datetime", "datetime", "datetime(6)", KindTimestamp},
		{"datetime2", "datetime2", "", KindTimestamp},
		{"smalldatetime", "smalldatetime", "", KindTimestamp},
		{"date", "date", "", KindDate},
		{"time", "time", "time(3)", KindTime},
		{"timetz", "time with time zone", "", KindTime},
		{"varchar", "varchar", "varchar(255)", KindUnknown},
		{"text", "text", "", KindUnknown},
		{"uuid", "uuid", "", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := Classify(Column{Name: "c", DataType: tt.dataType, ColumnType: tt.columnType})
			assert.Equal(t, tt.want, hint.Kind, "Classify(%q, %q)", tt.dataType, tt.columnType)
		})
	}
}

func TestClassifyModifiers(t *testing.T) {
	hint := Classify(Column{Name: "c", DataType: "decimal", ColumnType: "decimal(10,2) unsigned"})
	assert.Equal(t, KindDecimal, hint.Kind)
	assert.True(t, hint.Unsigned)
	assert.Equal(t, 10, hint.Precision)
	assert.Equal(t, 2, hint.Scale)

	hint = Classify(Column{Name: "c", DataType: "decimal", ColumnType: "decimal(12)"})
	assert.Equal(t, 12, hint.Precision)
	assert.Equal(t, -1, hint.Scale, "scale stays undeclared")

	hint = Classify(Column{Name: "c", DataType: "timestamp with time zone"})
	assert.True(t, hint.TimezoneAware)

	hint = Classify(Column{Name: "c", DataType: "timestamptz"})
	assert.True(t, hint.TimezoneAware)

	hint = Classify(Column{Name: "c", DataType: "datetime"})
	assert.False(t, hint.TimezoneAware)

	hint = Classify(Column{Name: "c", DataType: "jsonb"})
	assert.True(t, hint.PostgresJSONB)
	hint = Classify(Column{Name: "c", DataType: "json"})
	assert.False(t, hint.PostgresJSONB)
}

func TestHintsLookup(t *testing.T) {
	hints := NewHints([]Column{
		{Name: "ID", DataType: "bigint", ColumnType: "bigint(20) unsigned"},
		{Name: "payload", DataType: "json"},
	})
	assert.Equal(t, KindInteger, hints.For("id").Kind)
	assert.Equal(t, KindInteger, hints.For("Id").Kind)
	assert.Equal(t, KindJSON, hints.For("PAYLOAD").Kind)
	// No matching destination column defaults to Unknown.
	assert.Equal(t, KindUnknown, hints.For("missing").Kind)
	assert.Equal(t, -1, hints.For("missing").Scale)
}
