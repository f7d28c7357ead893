package optima_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	optima "github.com/iliesw/OptimaDB"
	"github.com/iliesw/OptimaDB/logger"
	"github.com/iliesw/OptimaDB/schema"
)

func userDef() optima.TableDef {
	return optima.TableDef{
		Name: "Users",
		Fields: schema.Fields{
			"ID":    schema.Integer(schema.Options{PrimaryKey: true, AutoIncrement: true}),
			"Name":  schema.Text(schema.Options{NotNull: true}),
			"Email": schema.Email(schema.Options{Unique: true}),
			"Admin": schema.Boolean(schema.Options{Default: false}),
			"Key":   schema.UUID(schema.Options{Default: schema.GenerateUUID}),
			"Tags":  schema.Array(),
			"Meta":  schema.Json(),
		},
	}
}

func postDef() optima.TableDef {
	return optima.TableDef{
		Name: "Posts",
		Fields: schema.Fields{
			"ID":     schema.Integer(schema.Options{PrimaryKey: true, AutoIncrement: true}),
			"Title":  schema.Text(schema.Options{NotNull: true}),
			"UserID": schema.Integer(schema.Options{NotNull: true}).Reference("Users", "ID", schema.Many),
		},
	}
}

func profileDef() optima.TableDef {
	return optima.TableDef{
		Name: "Profiles",
		Fields: schema.Fields{
			"ID":     schema.Integer(schema.Options{PrimaryKey: true, AutoIncrement: true}),
			"Bio":    schema.Text(),
			"UserID": schema.Integer().Reference("Users", "ID", schema.One),
		},
	}
}

func openTestDB(t *testing.T, notifier optima.Notifier) *optima.DB {
	t.Helper()
	db, err := optima.Open(optima.Config{
		Memory:   true,
		Logger:   logger.Discard,
		Notifier: notifier,
	}, userDef(), postDef(), profileDef())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGet(t *testing.T) {
	db := openTestDB(t, nil)
	users, err := db.Table("Users")
	require.NoError(t, err)

	inserted, err := users.Insert(optima.Row{
		"Name":  "jinzhu",
		"Email": "jinzhu@example.com",
		"Tags":  []interface{}{"go", "db"},
		"Meta":  map[string]interface{}{"a": 1.0},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), inserted["ID"])
	assert.Equal(t, "jinzhu", inserted["Name"])
	assert.Equal(t, false, inserted["Admin"], "engine-side default applied")
	assert.Equal(t, []interface{}{"go", "db"}, inserted["Tags"])
	assert.Equal(t, map[string]interface{}{"a": 1.0}, inserted["Meta"])

	key, ok := inserted["Key"].(string)
	require.True(t, ok, "UUID default generated")
	_, err = uuid.Parse(key)
	assert.NoError(t, err)

	found, err := users.GetOne(optima.Filter{"ID": 1}, nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "jinzhu", found["Name"])
}

func TestGetOneAbsent(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	row, err := users.GetOne(optima.Filter{"ID": 404}, nil)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGetOneOffset(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	for _, name := range []string{"c", "a", "b"} {
		_, err := users.Insert(optima.Row{"Name": name})
		require.NoError(t, err)
	}

	row, err := users.GetOne(nil, &optima.QueryOptions{Order: "Name", Offset: 1})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "b", row["Name"])

	row, err = users.GetOne(nil, &optima.QueryOptions{Order: "Name", Offset: 3})
	require.NoError(t, err)
	assert.Nil(t, row, "offset past the last row matches nothing")
}

func TestInsertMissingRequired(t *testing.T) {
	db := openTestDB(t, nil)
	posts, _ := db.Table("Posts")

	before, err := posts.Count(nil)
	require.NoError(t, err)

	_, err = posts.Insert(optima.Row{"UserID": 1})
	require.Error(t, err)
	var schemaErr *optima.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Posts", schemaErr.Table)
	assert.Equal(t, "Title", schemaErr.Field)

	after, err := posts.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, before, after, "no partial write")
}

func TestInsertExplicitNull(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": nil})
	var schemaErr *optima.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestInsertUnknownColumn(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": "a", "Nope": 1})
	var schemaErr *optima.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Nope", schemaErr.Field)
}

func TestInsertValidation(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": 5})
	var validationErr *optima.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Name", validationErr.Field)

	_, err = users.Insert(optima.Row{"Name": "a", "Email": "not-an-email"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Email", validationErr.Field)
}

func TestUniqueViolationPropagates(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": "a", "Email": "dup@example.com"})
	require.NoError(t, err)

	_, err = users.Insert(optima.Row{"Name": "b", "Email": "dup@example.com"})
	require.Error(t, err)

	var schemaErr *optima.SchemaError
	var validationErr *optima.ValidationError
	assert.False(t, errors.As(err, &schemaErr))
	assert.False(t, errors.As(err, &validationErr))
}

func TestUpdate(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": "old", "Email": "u@example.com"})
	require.NoError(t, err)

	affected, err := users.Update(optima.Row{"Name": "new", "Admin": true}, optima.Filter{"ID": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	row, err := users.GetOne(optima.Filter{"ID": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", row["Name"])
	assert.Equal(t, true, row["Admin"])

	// explicit null into a not-null column is rejected
	_, err = users.Update(optima.Row{"Name": nil}, optima.Filter{"ID": 1})
	var schemaErr *optima.SchemaError
	require.ErrorAs(t, err, &schemaErr)

	// explicit null into a nullable column clears it
	affected, err = users.Update(optima.Row{"Email": nil}, optima.Filter{"ID": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	row, err = users.GetOne(optima.Filter{"ID": 1}, nil)
	require.NoError(t, err)
	assert.Nil(t, row["Email"])
}

func TestDeleteAndCount(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	for _, name := range []string{"a", "b", "c"} {
		_, err := users.Insert(optima.Row{"Name": name})
		require.NoError(t, err)
	}

	count, err := users.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	affected, err := users.Delete(optima.Filter{"Name": "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	count, err = users.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountTraced(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZerologLogger(zerolog.New(&buf), logger.Config{LogLevel: logger.Info})

	db, err := optima.Open(optima.Config{Memory: true, Logger: log}, userDef(), postDef(), profileDef())
	require.NoError(t, err)
	defer db.Close()

	users, _ := db.Table("Users")
	buf.Reset()

	count, err := users.Count(optima.Filter{"Name": "a"})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Contains(t, buf.String(), "SELECT COUNT(*)", "count statements are traced")
}

func TestLogicalComposition(t *testing.T) {
	db, err := optima.Open(optima.Config{Memory: true, Logger: logger.Discard}, optima.TableDef{
		Name: "Nums",
		Fields: schema.Fields{
			"ID": schema.Integer(schema.Options{PrimaryKey: true, AutoIncrement: true}),
			"A":  schema.Integer(),
		},
	})
	require.NoError(t, err)
	defer db.Close()

	nums, _ := db.Table("Nums")
	for _, a := range []int{1, 2, 3} {
		_, err := nums.Insert(optima.Row{"A": a})
		require.NoError(t, err)
	}

	rows, err := nums.Get(optima.Filter{"$or": []optima.Filter{{"A": 1}, {"A": 2}}}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Contains(t, []interface{}{int64(1), int64(2)}, row["A"])
	}
}

func TestOrderLimitOffset(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	for _, name := range []string{"c", "a", "b"} {
		_, err := users.Insert(optima.Row{"Name": name})
		require.NoError(t, err)
	}

	rows, err := users.Get(nil, &optima.QueryOptions{Order: "Name", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["Name"])
	assert.Equal(t, "c", rows[1]["Name"])

	_, err = users.Get(nil, &optima.QueryOptions{Order: "Nope"})
	var compileErr *optima.CompileError
	require.ErrorAs(t, err, &compileErr)
}

func TestJSONFilters(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{
		"Name": "a",
		"Tags": []interface{}{"go", "db"},
		"Meta": map[string]interface{}{"a": 1.0},
	})
	require.NoError(t, err)
	_, err = users.Insert(optima.Row{
		"Name": "b",
		"Tags": []interface{}{"rust"},
		"Meta": map[string]interface{}{"a": 2.0},
	})
	require.NoError(t, err)

	rows, err := users.Get(optima.Filter{"Tags": optima.Filter{"$includes": "go"}}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["Name"])

	rows, err = users.Get(optima.Filter{"Tags": []interface{}{"go", "rust"}}, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "bare list is contains-any")

	rows, err = users.Get(optima.Filter{"Meta": map[string]interface{}{"a": 2.0}}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["Name"])
}

func TestExtend(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")
	posts, _ := db.Table("Posts")
	profiles, _ := db.Table("Profiles")

	_, err := users.Insert(optima.Row{"ID": 7, "Name": "author"})
	require.NoError(t, err)
	_, err = posts.Insert(optima.Row{"Title": "one", "UserID": 7})
	require.NoError(t, err)
	_, err = posts.Insert(optima.Row{"Title": "two", "UserID": 7})
	require.NoError(t, err)
	_, err = profiles.Insert(optima.Row{"Bio": "hi", "UserID": 7})
	require.NoError(t, err)

	row, err := users.GetOne(optima.Filter{"ID": 7}, &optima.QueryOptions{Extend: []string{"Posts", "Profiles"}})
	require.NoError(t, err)
	require.NotNil(t, row)

	related, ok := row["$Posts"].([]optima.Row)
	require.True(t, ok)
	assert.Len(t, related, 2)

	profile, ok := row["$Profiles"].(optima.Row)
	require.True(t, ok)
	assert.Equal(t, "hi", profile["Bio"])
}

func TestExtendUnknownRelation(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": "a"})
	require.NoError(t, err)

	_, err = users.Get(nil, &optima.QueryOptions{Extend: []string{"Comments"}})
	var schemaErr *optima.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Users", schemaErr.Table)
	assert.Equal(t, "Comments", schemaErr.Field)
}

func TestBatch(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	err := db.Batch(func(tx *optima.DB) error {
		txUsers, err := tx.Table("Users")
		if err != nil {
			return err
		}
		if _, err := txUsers.Insert(optima.Row{"Name": "a"}); err != nil {
			return err
		}
		_, err = txUsers.Insert(optima.Row{"Name": "b"})
		return err
	})
	require.NoError(t, err)

	count, err := users.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBatchRollback(t *testing.T) {
	db := openTestDB(t, nil)
	users, _ := db.Table("Users")

	boom := errors.New("boom")
	err := db.Batch(func(tx *optima.DB) error {
		txUsers, err := tx.Table("Users")
		if err != nil {
			return err
		}
		if _, err := txUsers.Insert(optima.Row{"Name": "a"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := users.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "batch rolled back")
}

func TestBatchNested(t *testing.T) {
	db := openTestDB(t, nil)

	err := db.Batch(func(tx *optima.DB) error {
		return tx.Batch(func(*optima.DB) error { return nil })
	})
	require.ErrorIs(t, err, optima.ErrNestedBatch)
}

func TestNotifier(t *testing.T) {
	notifier := optima.NewChannelNotifier(8)
	db := openTestDB(t, notifier)
	users, _ := db.Table("Users")

	_, err := users.Insert(optima.Row{"Name": "a"})
	require.NoError(t, err)

	select {
	case table := <-notifier.C:
		assert.Equal(t, "Users", table)
	default:
		t.Fatal("expected a change notification")
	}
}

func TestUnknownTable(t *testing.T) {
	db := openTestDB(t, nil)

	_, err := db.Table("Nope")
	require.ErrorIs(t, err, optima.ErrUnknownTable)
}
