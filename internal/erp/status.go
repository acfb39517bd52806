package erp

// Status is the lifecycle state of a production order as the ERP backend
// spells it on the wire.
type Status string

const (
	StatusActiva     Status = "activa"
	StatusEnProceso  Status = "en_proceso"
	StatusCompletada Status = "completada"
	StatusCancelada  Status = "cancelada"
)

var validNext = map[Status]map[Status]bool{
	StatusActiva:     {StatusEnProceso: true, StatusCancelada: true},
	StatusEnProceso:  {StatusCompletada: true, StatusCancelada: true},
	StatusCompletada: {},
	StatusCancelada:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Active reports whether an order still belongs on the production floor.
func (s Status) Active() bool {
	return s == StatusActiva || s == StatusEnProceso
}
