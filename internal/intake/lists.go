package intake

import (
	"fmt"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// List field paths.
const (
	ListMedicines    = "counselling.medicines"
	ListTransactions = "payments.transactions"
	ListImages       = "documents.images"
	ListSurgeryForm  = "documents.surgeryForm"
	ListConsultForm  = "documents.consultForm"
)

var stringLists = map[string]func(d *Draft) *[]string{
	ListMedicines:   func(d *Draft) *[]string { return &d.Counselling.Medicines },
	ListImages:      func(d *Draft) *[]string { return &d.Documents.Images },
	ListSurgeryForm: func(d *Draft) *[]string { return &d.Documents.SurgeryForm },
	ListConsultForm: func(d *Draft) *[]string { return &d.Documents.ConsultForm },
}

func addItem(d *Draft, list string, value interface{}) error {
	if list == ListTransactions {
		tx, err := transaction(value)
		if err != nil {
			return err
		}
		d.Payments.Transactions = append(d.Payments.Transactions, tx)
		return nil
	}
	ref, ok := stringLists[list]
	if !ok {
		return fmt.Errorf("unknown list %q", list)
	}
	s, err := item(value)
	if err != nil {
		return err
	}
	*ref(d) = append(*ref(d), s)
	return nil
}

func updateItem(d *Draft, list string, index int, value interface{}) error {
	if list == ListTransactions {
		if err := checkIndex(index, len(d.Payments.Transactions)); err != nil {
			return err
		}
		tx, err := transaction(value)
		if err != nil {
			return err
		}
		d.Payments.Transactions[index] = tx
		return nil
	}
	ref, ok := stringLists[list]
	if !ok {
		return fmt.Errorf("unknown list %q", list)
	}
	if err := checkIndex(index, len(*ref(d))); err != nil {
		return err
	}
	s, err := item(value)
	if err != nil {
		return err
	}
	(*ref(d))[index] = s
	return nil
}

func removeItem(d *Draft, list string, index int) error {
	if list == ListTransactions {
		txs := d.Payments.Transactions
		if err := checkIndex(index, len(txs)); err != nil {
			return err
		}
		d.Payments.Transactions = append(append([]model.Transaction{}, txs[:index]...), txs[index+1:]...)
		return nil
	}
	ref, ok := stringLists[list]
	if !ok {
		return fmt.Errorf("unknown list %q", list)
	}
	items := *ref(d)
	if err := checkIndex(index, len(items)); err != nil {
		return err
	}
	*ref(d) = append(append([]string{}, items[:index]...), items[index+1:]...)
	return nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("index %d out of range [0, %d)", index, n)
	}
	return nil
}

func item(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string item, got %T", value)
	}
	return s, nil
}

func transaction(value interface{}) (model.Transaction, error) {
	var tx model.Transaction
	switch v := value.(type) {
	case model.Transaction:
		tx = v
	case *model.Transaction:
		if v == nil {
			return tx, fmt.Errorf("transaction is required")
		}
		tx = *v
	default:
		return tx, fmt.Errorf("expected a transaction, got %T", value)
	}
	if tx.Date.IsZero() {
		return tx, fmt.Errorf("transaction date is required")
	}
	if !contains(methodOptions, string(tx.Method)) {
		return tx, fmt.Errorf("payment method %q must be one of %v", tx.Method, methodOptions)
	}
	if tx.Amount <= 0 {
		return tx, fmt.Errorf("transaction amount must be greater than 0")
	}
	return tx, nil
}
