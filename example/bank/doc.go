// Package bank is a sample account aggregate: deposits and withdrawals on a single balance.
package bank
