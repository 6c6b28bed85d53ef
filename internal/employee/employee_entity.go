package employee

// Employee as returned by GET /employees. The directory is read-only here.
type Employee struct {
	ID           int64  `json:"id"`
	LastName     string `json:"lastName"`
	FirstName    string `json:"firstName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Position     string `json:"position,omitempty"`
	HireDate     string `json:"hireDate,omitempty"`
	ContractType string `json:"contractType,omitempty"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}

// Index maps employees by id.
func Index(employees []Employee) map[int64]Employee {
	idx := make(map[int64]Employee, len(employees))
	for _, e := range employees {
		idx[e.ID] = e
	}
	return idx
}
