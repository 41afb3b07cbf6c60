// Package randompkg provides functionality gor generating random applications common items.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

const (
	alphabet     = "abcdefghijklmnopqrstuvwxyz"
	upperAlnum   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits       = "0123456789"
	accountWidth = 10
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// Int64Between generates a random integer in [min, max].
func Int64Between(min, max int64) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		panic(err)
	}

	return min + nBig.Int64()
}

func fromAlphabet(n int, set string) string {
	var sb strings.Builder

	k := len(set)

	for i := 0; i < n; i++ {
		_ = sb.WriteByte(set[Intn(k)]) // The returned err is always nil.
	}

	return sb.String()
}

// String generates a random string of length n.
func String(n int) string {
	return fromAlphabet(n, alphabet)
}

// Owner generates a random owner name.
func Owner() string {
	return String(6)
}

// FullName generates a random display name.
func FullName() string {
	return strings.ToUpper(String(1)) + String(7)
}

// Email generates a random email.
func Email() string {
	return fmt.Sprintf("%s@email.com", String(10))
}

// MinorUnitsBetween generates a random amount of minor units between min and max.
func MinorUnitsBetween(min, max int64) int64 {
	return Int64Between(min, max)
}

// MoneyAmountBetween generates a random decimal amount string between min and max minor units.
func MoneyAmountBetween(min, max int64) string {
	return moneypkg.Format(MinorUnitsBetween(min, max))
}

// AccountNumber generates a random 10 digit bank account number without a leading zero.
func AccountNumber() string {
	return fromAlphabet(1, digits[1:]) + fromAlphabet(accountWidth-1, digits)
}

var bankCodes = []string{"SBIN", "HDFC", "ICIC", "UBIN", "CNRB"}

// RoutingCode generates a random branch routing code shaped as AAAA0XXXXXX.
func RoutingCode() string {
	return bankCodes[Intn(len(bankCodes))] + "0" + fromAlphabet(6, upperAlnum)
}
