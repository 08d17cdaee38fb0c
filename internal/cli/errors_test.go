package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/calvinalkan/todowork/internal/todo"
)

func Test_Argument_Errors_Match_Task_Sentinels(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	if err := execAdd(NewIO(&out, &errOut), &deps{}, []string{"  "}); !errors.Is(err, todo.ErrTextRequired) {
		t.Errorf("add error=%v, want %v", err, todo.ErrTextRequired)
	}

	if _, _, err := resolveTask(&deps{}, nil); !errors.Is(err, todo.ErrIDRequired) {
		t.Errorf("resolve error=%v, want %v", err, todo.ErrIDRequired)
	}
}
