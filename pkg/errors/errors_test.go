package errors

import "testing"

func TestDefinitionComparableAsError(t *testing.T) {
	var err error = DrawAlreadyDone

	// 值接收者实现 error，业务错误可以直接比较
	if err != DrawAlreadyDone {
		t.Fatal("definition stored in error interface must compare equal to itself")
	}
	if err.Error() != DrawAlreadyDone.Message {
		t.Fatalf("Error() = %q, want %q", err.Error(), DrawAlreadyDone.Message)
	}
}

func TestGet(t *testing.T) {
	if got := Get("SCHEME_NOT_FOUND"); got != SchemeNotFound {
		t.Fatalf("Get = %+v, want SchemeNotFound", got)
	}

	unknown := Get("NO_SUCH_CODE")
	if unknown.Code != "NO_SUCH_CODE" || unknown.Message != "Unexpected error" {
		t.Fatalf("Get unknown = %+v", unknown)
	}
}

func TestLookupCoversAllDefinitions(t *testing.T) {
	for code, def := range Lookup {
		if code != def.Code {
			t.Errorf("lookup key %q maps to definition with code %q", code, def.Code)
		}
		if def.Message == "" {
			t.Errorf("definition %q has empty message", code)
		}
	}
}
