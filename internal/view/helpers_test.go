package view

import (
	"fmt"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func person(name string) *model.Person {
	return &model.Person{Name: name}
}

func issue(id int, employee, customer, description string) model.Issue {
	var emp, cust *model.Person
	if employee != "" {
		emp = person(employee)
	}
	if customer != "" {
		cust = person(customer)
	}
	return model.Issue{
		ID:          fmt.Sprintf("issue-%02d", id),
		Submitted:   baseTime.Add(time.Duration(id) * time.Hour),
		Status:      model.StatusOk,
		Active:      id%2 == 0,
		Employee:    emp,
		Customer:    cust,
		Description: description,
	}
}

func ids(issues []model.Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.ID
	}
	return out
}

// tenRecords has four Alice, three Bob and three Carol records.
func tenRecords() []model.Issue {
	employees := []string{"Alice", "Bob", "Carol", "Alice", "Bob", "Carol", "Alice", "Bob", "Carol", "Alice"}
	customers := []string{"Acme", "Globex", "Acme", "Initech", "Acme", "Globex", "Initech", "Acme", "Globex", "Acme"}
	records := make([]model.Issue, len(employees))
	for i := range employees {
		records[i] = issue(i+1, employees[i], customers[i], fmt.Sprintf("ticket %d", i+1))
	}
	return records
}

func manyRecords(n int) []model.Issue {
	records := make([]model.Issue, n)
	for i := range records {
		records[i] = issue(i+1, "Alice", "Acme", "bulk")
	}
	return records
}
