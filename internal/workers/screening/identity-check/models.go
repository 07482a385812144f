// internal/workers/screening/identity-check/models.go
package identitycheck

type Input struct {
	CPF  string `json:"cpf"`
	Name string `json:"name"`
}

type Output struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Approved      bool   `json:"approved"`
}
