package ports

import (
	"errors"
	"io"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// ErrTooManyRows el archivo supera el máximo de filas admitido.
var ErrTooManyRows = errors.New("csv: demasiadas filas")

// CSVCodec lectura de archivos de importación y escritura del export de leads.
type CSVCodec interface {
	// Decode devuelve las cabeceras normalizadas (snake_case, alias resueltos) y cada fila
	// como mapa cabecera -> valor. Más de maxRows filas de datos devuelve ErrTooManyRows.
	Decode(r io.Reader, maxRows int) (headers []string, rows []map[string]any, err error)
	EncodeLeads(w io.Writer, leads []*entity.Lead) error
}
