package pages

import (
	"fmt"

	"bakehouse/models"
)

func receiptTitle(receipt models.Receipt) string {
	return fmt.Sprintf("Receipt #%d", receipt.ID)
}
