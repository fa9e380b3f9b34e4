package farmacia

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or number. Some screens of the pharmacy API
// serialize phone numbers and CI codes as numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type productDTO struct {
	ID             int64           `json:"id"`
	Codigo         flexString      `json:"codigo"`
	Nombre         string          `json:"nombre"`
	Descripcion    string          `json:"descripcion"`
	Precio         decimal.Decimal `json:"precio"`
	Stock          int             `json:"stock"`
	Casilla        int             `json:"casilla"`
	Concentracion  float64         `json:"concentracion"`
	Vencimiento    string          `json:"vencimiento"`
	IDPresentacion int64           `json:"idpresentacion"`
	IDLaboratorio  int64           `json:"idlaboratorio"`
	IDTipo         int64           `json:"idtipo"`
	Eliminado      bool            `json:"eliminado"`
}

func (d productDTO) toEntity() entity.Product {
	return entity.Product{
		ID:             d.ID,
		Code:           string(d.Codigo),
		Name:           d.Nombre,
		Description:    d.Descripcion,
		Price:          d.Precio,
		Stock:          d.Stock,
		Shelf:          d.Casilla,
		Concentration:  d.Concentracion,
		ExpiresOn:      d.Vencimiento,
		PresentationID: d.IDPresentacion,
		LaboratoryID:   d.IDLaboratorio,
		TypeID:         d.IDTipo,
		Deleted:        d.Eliminado,
	}
}

type clientDTO struct {
	ID        int64      `json:"id"`
	Nombre    string     `json:"nombre"`
	CI        flexString `json:"ci"`
	Telefono  flexString `json:"telefono"`
	Direccion string     `json:"direccion"`
	Eliminado bool       `json:"eliminado"`
}

func (d clientDTO) toEntity() entity.Client {
	return entity.Client{
		ID:      d.ID,
		Name:    d.Nombre,
		TaxCode: string(d.CI),
		Phone:   string(d.Telefono),
		Address: d.Direccion,
		Deleted: d.Eliminado,
	}
}

type laboratoryDTO struct {
	ID                int64  `json:"id"`
	LaboratorioNombre string `json:"laboratorioNombre"`
}

type typeDTO struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

type presentationDTO struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	NombreCorto string `json:"nombreCorto"`
}

type configurationDTO struct {
	ID        flexString `json:"id"`
	Nombre    string     `json:"nombre"`
	Telefono  flexString `json:"telefono"`
	Email     string     `json:"email"`
	Direccion string     `json:"direccion"`
}

type permissionDTO struct {
	IDPermiso int    `json:"idpermiso"`
	Estado    string `json:"estado"`
}

type saleDTO struct {
	ID        int64           `json:"id"`
	Fecha     string          `json:"fecha"`
	Total     decimal.Decimal `json:"total"`
	IDUsuario int64           `json:"idusuario"`
	IDCliente int64           `json:"idcliente"`
}

type saleLineDTO struct {
	ID         int64           `json:"id"`
	Cantidad   int             `json:"cantidad"`
	Descuento  decimal.Decimal `json:"descuento"`
	Precio     decimal.Decimal `json:"precio"`
	Total      decimal.Decimal `json:"total"`
	IDProducto int64           `json:"idproducto"`
	IDVenta    int64           `json:"idventa"`
}

func (d saleLineDTO) toEntity() entity.SaleLine {
	return entity.SaleLine{
		ID:        d.ID,
		Quantity:  d.Cantidad,
		UnitPrice: d.Precio,
		Discount:  d.Descuento,
		LineTotal: d.Total,
		ProductID: d.IDProducto,
		SaleID:    d.IDVenta,
	}
}

// isActive matches the "Activo" state of a permission row
func isActive(estado string) bool {
	return strings.EqualFold(strings.TrimSpace(estado), "activo")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
