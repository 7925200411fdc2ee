package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseTokenMappings(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		expected []TokenMapping
	}{
		{"empty", "", nil},
		{"whitespace", "  \n\t", nil},
		{
			"environment set",
			`pm.environment.set("tok", jsonData.data.token);`,
			[]TokenMapping{{VariableName: "tok", JSONPath: "data.token"}},
		},
		{
			"every scope",
			`pm.collectionVariables.set("a", jsonData.a);
pm.environment.set("b", jsonData.b);
pm.globals.set("c", jsonData.c);
pm.variables.set("d", jsonData.d);`,
			[]TokenMapping{
				{VariableName: "a", JSONPath: "a"},
				{VariableName: "b", JSONPath: "b"},
				{VariableName: "c", JSONPath: "c"},
				{VariableName: "d", JSONPath: "d"},
			},
		},
		{
			"legacy setters",
			`postman.setEnvironmentVariable('env_tok', jsonData.token);
postman.setGlobalVariable("glob", jsonData.session.id)`,
			[]TokenMapping{
				{VariableName: "env_tok", JSONPath: "token"},
				{VariableName: "glob", JSONPath: "session.id"},
			},
		},
		{
			"expression without jsonData",
			`pm.environment.set("raw", responseBody.token );`,
			[]TokenMapping{{VariableName: "raw", JSONPath: "responseBody.token"}},
		},
		{
			"expression stops at first parenthesis",
			`pm.environment.set("t", pm.response.json().token);`,
			[]TokenMapping{{VariableName: "t", JSONPath: "pm.response.json("}},
		},
		{
			"jsonData inside a larger expression",
			`pm.environment.set("t", "Bearer " + jsonData.auth.access_token);`,
			[]TokenMapping{{VariableName: "t", JSONPath: "auth.access_token"}},
		},
		{
			"whitespace and newlines inside the call",
			"pm.environment.set (\n  \"spaced\" ,\n  jsonData.x\n);",
			[]TokenMapping{{VariableName: "spaced", JSONPath: "x"}},
		},
		{
			"realistic test script",
			`var jsonData = pm.response.json();
pm.test("Status code is 200", function () {
    pm.response.to.have.status(200);
});
pm.environment.set("user_token", jsonData.access_token);
pm.collectionVariables.set("refresh_token", jsonData.refresh_token);`,
			[]TokenMapping{
				{VariableName: "user_token", JSONPath: "access_token"},
				{VariableName: "refresh_token", JSONPath: "refresh_token"},
			},
		},
		{"unknown scope", `pm.cookies.set("a", jsonData.a);`, nil},
		{"get is not an assignment", `pm.environment.get("a");`, nil},
		{"missing name", `pm.environment.set(jsonData.a, jsonData.b);`, nil},
		{"empty name", `pm.environment.set("", jsonData.b);`, nil},
		{"empty expression", `pm.environment.set("a", );`, nil},
		{"unterminated call", `pm.environment.set("a", jsonData.b`, nil},
		{"identifier prefix does not match", `xpm.environment.set("a", jsonData.b);`, nil},
		{"line comment skipped", `// pm.environment.set("a", jsonData.b);`, nil},
		{"block comment skipped", "/* pm.environment.set(\"a\", jsonData.b); */\npm.globals.set(\"c\", jsonData.c);",
			[]TokenMapping{{VariableName: "c", JSONPath: "c"}}},
		{"call inside string ignored", `console.log("pm.environment.set('a', jsonData.b)");`, nil},
		{"garbage", "@@@ ))) ((( '''", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTokenMappings(tt.script))
		})
	}
}

func TestProperty_ParseTokenMappingsNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		script := rapid.String().Draw(t, "script")
		for _, m := range ParseTokenMappings(script) {
			if m.VariableName == "" || m.JSONPath == "" {
				t.Fatalf("mapping with empty field: %+v", m)
			}
		}
	})
}

func TestProperty_GeneratedCallsAreFound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scope := rapid.SampledFrom([]string{
			"pm.collectionVariables.set",
			"pm.environment.set",
			"pm.globals.set",
			"pm.variables.set",
			"postman.setEnvironmentVariable",
			"postman.setGlobalVariable",
		}).Draw(t, "setter")
		name := rapid.StringMatching(`[a-z_]{1,12}`).Draw(t, "name")
		path := rapid.StringMatching(`[a-z]{1,6}(\.[a-z0-9_]{1,6}){0,3}`).Draw(t, "path")

		script := scope + `("` + name + `", jsonData.` + path + `);`
		got := ParseTokenMappings(script)
		if len(got) != 1 || got[0].VariableName != name || got[0].JSONPath != path {
			t.Fatalf("ParseTokenMappings(%q) = %+v", script, got)
		}
	})
}
