package validate_test

import (
	"testing"

	"github.com/ardanlabs/peerledger/foundation/validate"
)

type submit struct {
	Recipient string  `json:"recipient" validate:"required,account"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

func Test_Check(t *testing.T) {
	const account = "0x2222222222222222222222222222222222222222222222222222222222222222"

	tt := []struct {
		name   string
		val    submit
		fields []string
	}{
		{"valid", submit{Recipient: account, Amount: 1}, nil},
		{"missing", submit{Amount: 1}, []string{"recipient"}},
		{"short", submit{Recipient: "0x22", Amount: 1}, []string{"recipient"}},
		{"negative", submit{Recipient: account, Amount: -1}, []string{"amount"}},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			err := validate.Check(tst.val)
			if tst.fields == nil {
				if err != nil {
					t.Fatalf("Should pass validation: %v", err)
				}
				return
			}

			if !validate.IsFieldErrors(err) {
				t.Fatalf("Should get field errors: %v", err)
			}

			fields := validate.GetFieldErrors(err).Fields()
			for _, f := range tst.fields {
				if _, exists := fields[f]; !exists {
					t.Fatalf("Should report field %q: %v", f, fields)
				}
			}
		})
	}
}
