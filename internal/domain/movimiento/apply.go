package movimiento

import (
	"corseg/internal/core/id"
	"corseg/internal/domain/poliza"
)

// Field mapping between movements and the policy aggregate is enumerated
// explicitly, field by field, so the compiler catches drift when either
// side changes.

// ApplyToPoliza copies the movement's policy header overrides onto the
// policy. Unset overrides leave the policy field untouched.
func ApplyToPoliza(m *Movimiento, p *poliza.Poliza) {
	if m.VendedorID != nil {
		p.VendedorID = *m.VendedorID
	}
	if m.FormaPagoID != nil {
		p.FormaPagoID = m.FormaPagoID
	}
	if m.FrecuenciaPagoID != nil {
		p.FrecuenciaPagoID = m.FrecuenciaPagoID
	}
	if m.GrupoID != nil {
		p.GrupoID = m.GrupoID
	}
}

// ApplyToRenovacion copies the movement's renewal snapshot overrides onto
// the renewal. For in-place endorsements the premium is a delta that ADDS
// to the existing premium (adjustment semantics); initiation and renewal
// movements REPLACE it. Every other field replaces.
func ApplyToRenovacion(m *Movimiento, r *poliza.Renovacion) {
	if m.Prima != nil {
		if m.EsEnSitio() {
			r.Prima = r.Prima.Add(*m.Prima)
		} else {
			r.Prima = *m.Prima
		}
	}
	if m.SumaAsegurada != nil {
		r.SumaAsegurada = *m.SumaAsegurada
	}
	if m.FechaEmision != nil {
		r.FechaEmision = m.FechaEmision
	}
	if m.InicioVigencia != nil {
		r.InicioVigencia = m.InicioVigencia
	}
	if m.FinVigencia != nil {
		r.FinVigencia = m.FinVigencia
	}
}

// ApplyModificacion copies a modification sub-record's field overrides
// onto the certificate and upserts the linked vehicle.
func ApplyModificacion(mod *Modificacion, c *poliza.Certificado) {
	if mod.Descripcion != nil {
		c.Descripcion = *mod.Descripcion
	}
	if mod.SumaAsegurada != nil {
		c.SumaAsegurada = *mod.SumaAsegurada
	}
	if mod.Prima != nil {
		c.Prima = *mod.Prima
	}
	if mod.Vehiculo != nil {
		v := *mod.Vehiculo
		v.CertificadoID = c.ID
		if c.Vehiculo != nil {
			// keep the existing row identity on update
			v.ID = c.Vehiculo.ID
		} else if id.IsNil(v.ID) {
			v.ID = id.New()
		}
		c.Vehiculo = &v
	}
}
