package catalog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quilldb/quill/internal/engineerrors"
	"github.com/quilldb/quill/internal/value"
)

func testDB() *Database {
	return New(8, logrus.StandardLogger())
}

func usersColumns() []*Column {
	return []*Column{
		{Name: "id", Type: "INT", IsPrimaryKey: true},
		{Name: "name", Type: "VARCHAR", IsNullable: true},
		{Name: "email", Type: "VARCHAR", IsNullable: true},
		{Name: "created_at", Type: "DATETIME", IsNullable: true},
	}
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	db := testDB()
	_, err := db.CreateTable("users", usersColumns())
	require.NoError(t, err)

	_, err = db.CreateTable("USERS", usersColumns())
	require.Error(t, err)
	kind, ok := engineerrors.Classify(err)
	require.True(t, ok)
	assert.Equal(t, engineerrors.TableExists, kind)
}

func TestCreateTableRejectsDuplicateColumnName(t *testing.T) {
	db := testDB()
	_, err := db.CreateTable("t", []*Column{
		{Name: "a", Type: "INT", IsPrimaryKey: true},
		{Name: "A", Type: "VARCHAR"},
	})
	require.Error(t, err)
}

func TestCreateTableRequiresExactlyOnePrimaryKey(t *testing.T) {
	db := testDB()
	_, err := db.CreateTable("t", []*Column{
		{Name: "a", Type: "INT"},
		{Name: "b", Type: "INT"},
	})
	require.Error(t, err)

	_, err = db.CreateTable("t2", []*Column{
		{Name: "a", Type: "INT", IsPrimaryKey: true},
		{Name: "b", Type: "INT", IsPrimaryKey: true},
	})
	require.Error(t, err)
}

func TestPrimaryKeyColumnIsNeverNullable(t *testing.T) {
	db := testDB()
	table, err := db.CreateTable("t", []*Column{
		{Name: "id", Type: "INT", IsPrimaryKey: true, IsNullable: true},
	})
	require.NoError(t, err)
	assert.False(t, table.PrimaryKey().IsNullable)
}

func TestGetDropTableNotFound(t *testing.T) {
	db := testDB()
	_, err := db.GetTable("ghost")
	kind, ok := engineerrors.Classify(err)
	require.True(t, ok)
	assert.Equal(t, engineerrors.TableNotFound, kind)

	err = db.DropTable("ghost")
	kind, ok = engineerrors.Classify(err)
	require.True(t, ok)
	assert.Equal(t, engineerrors.TableNotFound, kind)
}

func TestCaseInsensitiveLookupPreservesDisplayCasing(t *testing.T) {
	db := testDB()
	_, err := db.CreateTable("Users", usersColumns())
	require.NoError(t, err)

	table, err := db.GetTable("USERS")
	require.NoError(t, err)
	assert.Equal(t, "Users", table.Name)
}

func TestCoerceRejectsNullForNonNullableColumn(t *testing.T) {
	db := testDB()
	table, err := db.CreateTable("users", usersColumns())
	require.NoError(t, err)
	pk, _ := table.Column("id")

	_, err = table.Coerce(pk, value.Null)
	kind, ok := engineerrors.Classify(err)
	require.True(t, ok)
	assert.Equal(t, engineerrors.NullViolation, kind)
}

func TestCoerceTypeMismatch(t *testing.T) {
	db := testDB()
	table, err := db.CreateTable("users", usersColumns())
	require.NoError(t, err)
	id, _ := table.Column("id")

	_, err = table.Coerce(id, value.String("not a number"))
	kind, ok := engineerrors.Classify(err)
	require.True(t, ok)
	assert.Equal(t, engineerrors.TypeMismatch, kind)
}

func TestCoerceCanonicalStringParsing(t *testing.T) {
	db := testDB()
	table, err := db.CreateTable("t", []*Column{
		{Name: "id", Type: "INT", IsPrimaryKey: true},
		{Name: "active", Type: "BOOLEAN", IsNullable: true},
		{Name: "born", Type: "DATE", IsNullable: true},
	})
	require.NoError(t, err)

	active, _ := table.Column("active")
	v, err := table.Coerce(active, value.String("true"))
	require.NoError(t, err)
	assert.True(t, v.BoolValue())

	born, _ := table.Column("born")
	v, err = table.Coerce(born, value.String("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", v.CanonicalString())
}

func TestRowWithDefaultsFillsMissingColumns(t *testing.T) {
	db := testDB()
	def := value.String("unknown@example.com")
	table, err := db.CreateTable("t", []*Column{
		{Name: "id", Type: "INT", IsPrimaryKey: true},
		{Name: "email", Type: "VARCHAR", IsNullable: true, Default: &def},
	})
	require.NoError(t, err)

	partial := make(Row)
	partial.Set("id", value.Int(1))
	row := table.RowWithDefaults(partial)

	email, ok := row.Get("email")
	require.True(t, ok)
	assert.Equal(t, "unknown@example.com", email.CanonicalString())
}
