package projection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	fields    map[string]any
	relations map[string]*fakeEntity
}

func (f *fakeEntity) Field(name string) any { return f.fields[name] }

func (f *fakeEntity) Related(name string) Entity {
	rel, ok := f.relations[name]
	if !ok || rel == nil {
		return nil
	}
	return rel
}

func doctorFixture() *fakeEntity {
	return &fakeEntity{
		fields: map[string]any{
			"user_id":           int64(7),
			"specialization":    "cardiology",
			"rate":              "good",
			"short_description": "",
		},
		relations: map[string]*fakeEntity{
			"user": {
				fields: map[string]any{
					"id":         int64(7),
					"first_name": "Ada",
					"last_name":  "Byron",
					"email":      "ada@example.com",
					"address":    nil,
				},
			},
			"department": nil,
		},
	}
}

func TestProjectFlattensUnstructuredBlocks(t *testing.T) {
	f := New(
		Flatten("user", New(Attr("id"), Attr("first_name"), Attr("email"))),
		Attr("specialization"),
	)

	doc := Project(doctorFixture(), f)

	assert.Equal(t, Document{
		"id":             int64(7),
		"first_name":     "Ada",
		"email":          "ada@example.com",
		"specialization": "cardiology",
	}, doc)
}

func TestProjectNestsStructuredBlocks(t *testing.T) {
	f := New(
		Nest("user", New(Attr("first_name"), Attr("last_name"))),
		Attr("rate"),
	)

	doc := Project(doctorFixture(), f)

	require.Contains(t, doc, "user")
	assert.Equal(t, Document{"first_name": "Ada", "last_name": "Byron"}, doc["user"])
	assert.Equal(t, "good", doc["rate"])
}

func TestProjectMissingRelation(t *testing.T) {
	dept := New(Field("department_name", "name"))

	t.Run("structured block becomes null", func(t *testing.T) {
		doc := Project(doctorFixture(), New(Nest("department", dept)))
		require.Contains(t, doc, "department")
		assert.Nil(t, doc["department"])

		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"department": null}`, string(raw))
	})

	t.Run("flattened block contributes nothing", func(t *testing.T) {
		doc := Project(doctorFixture(), New(Flatten("department", dept), Attr("rate")))
		assert.Equal(t, Document{"rate": "good"}, doc)
	})

	t.Run("relation path prefix", func(t *testing.T) {
		assert.Nil(t, Project(doctorFixture(), dept, "department"))
		assert.Equal(t, Document{"first_name": "Ada"}, Project(doctorFixture(), New(Attr("first_name")), "user"))
	})

	t.Run("nil entity", func(t *testing.T) {
		var missing *fakeEntity
		assert.Nil(t, Project(missing, dept))
	})
}

func TestProjectOmitsAbsentScalars(t *testing.T) {
	f := New(
		Attr("short_description"),
		Flatten("user", New(Attr("address"), Attr("phone_number"))),
		Attr("rate"),
	)

	doc := Project(doctorFixture(), f)

	assert.Equal(t, Document{"rate": "good"}, doc)
}

func TestProjectDerivedURL(t *testing.T) {
	f := New(URL("url", "user_id", "https://hospital.test/api/doctors/"))

	doc := Project(doctorFixture(), f)
	assert.Equal(t, "https://hospital.test/api/doctors/7", doc["url"])

	empty := &fakeEntity{fields: map[string]any{}}
	assert.NotContains(t, Project(empty, f), "url")
}

func TestProjectZeroNumbersArePresent(t *testing.T) {
	e := &fakeEntity{fields: map[string]any{"pulse_rate": 0.0, "status": 0}}
	doc := Project(e, New(Attr("pulse_rate"), Attr("status")))
	assert.Equal(t, Document{"pulse_rate": 0.0, "status": 0}, doc)
}

func TestProjectIsIdempotent(t *testing.T) {
	f := New(
		URL("url", "user_id", "/doctors/"),
		Flatten("user", New(Attr("first_name"), Attr("email"))),
		Nest("department", New(Attr("name"))),
	)
	e := doctorFixture()

	assert.Equal(t, Project(e, f), Project(e, f))
}

func TestProjectAllPreservesOrder(t *testing.T) {
	items := []*fakeEntity{
		{fields: map[string]any{"id": 3}},
		{fields: map[string]any{"id": 1}},
		{fields: map[string]any{"id": 2}},
	}

	docs := ProjectAll(items, New(Attr("id")))

	require.Len(t, docs, 3)
	assert.Equal(t, 3, docs[0]["id"])
	assert.Equal(t, 1, docs[1]["id"])
	assert.Equal(t, 2, docs[2]["id"])

	assert.NotNil(t, ProjectAll([]*fakeEntity{}, New(Attr("id"))))
}

func TestFormatIsImmutable(t *testing.T) {
	nodes := []Node{Attr("a"), Attr("b")}
	f := New(nodes...)
	nodes[0] = Attr("z")

	assert.Equal(t, []string{"a", "b"}, f.Keys())

	g := f.Extend(Attr("c"))
	assert.Equal(t, []string{"a", "b"}, f.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, g.Keys())
}
