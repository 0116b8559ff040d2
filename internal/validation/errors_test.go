package validation

import "testing"

func TestErrorsFieldsAndMessages(t *testing.T) {
	var errs Errors
	if !errs.Empty() {
		t.Fatal("expected new collection to be empty")
	}

	errs.Add("html_content", CodeBlank, "at least one content section must be filled in")
	errs.Add("text_content", CodeBlank, "at least one content section must be filled in")
	errs.AddBase("There must be at least one user")
	errs.Add("html_content", CodeInvalid, "is odd")

	if got := errs.Fields(); len(got) != 3 || got[0] != "html_content" || got[2] != Base {
		t.Errorf("unexpected fields: %v", got)
	}
	if n := len(errs.On("html_content")); n != 2 {
		t.Errorf("expected 2 errors on html_content, got %d", n)
	}
	if !errs.Has(Base, CodeInvalid) {
		t.Error("expected base error")
	}

	msgs := errs.FullMessages()
	if msgs[0] != "html content at least one content section must be filled in" {
		t.Errorf("unexpected message: %q", msgs[0])
	}
	if msgs[2] != "There must be at least one user" {
		t.Errorf("base message should be bare, got %q", msgs[2])
	}
}

func TestErrorsMerge(t *testing.T) {
	var nested Errors
	nested.Add("email", CodeBlank, "can't be blank")
	nested.AddBase("broken")

	var errs Errors
	errs.Merge("user", nested)

	if !errs.Has("user.email", CodeBlank) {
		t.Errorf("expected prefixed field, got %v", errs)
	}
	if !errs.Has(Base, CodeInvalid) {
		t.Errorf("base errors should stay on base, got %v", errs)
	}
}
