// Package mock provides test doubles for reveal interfaces using function fields.
package mock
