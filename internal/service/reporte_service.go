package service

import (
	"context"
	"time"

	"novaadm/internal/apierror"
	"novaadm/internal/fiscal"
	"novaadm/internal/model"
	"novaadm/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ReporteService interface {
	// Fiscal aggregates sales, purchases and withholdings of [desde, hasta],
	// both days inclusive, given as YYYY-MM-DD in the configured zone.
	Fiscal(ctx context.Context, empresaID uuid.UUID, desde, hasta string) (*fiscal.ReporteFiscal, error)
}

type reporteService struct {
	ventas      repository.VentaRepository
	compras     repository.CompraRepository
	retenciones repository.RetencionRepository
	zona        *time.Location
}

func NewReporteService(
	ventas repository.VentaRepository,
	compras repository.CompraRepository,
	retenciones repository.RetencionRepository,
	zona *time.Location,
) ReporteService {
	if zona == nil {
		zona = time.UTC
	}
	return &reporteService{ventas: ventas, compras: compras, retenciones: retenciones, zona: zona}
}

func (s *reporteService) Fiscal(ctx context.Context, empresaID uuid.UUID, desdeStr, hastaStr string) (*fiscal.ReporteFiscal, error) {
	desde, err := time.ParseInLocation("2006-01-02", desdeStr, s.zona)
	if err != nil {
		return nil, apierror.Validar("desde debe tener formato YYYY-MM-DD")
	}
	hasta, err := time.ParseInLocation("2006-01-02", hastaStr, s.zona)
	if err != nil {
		return nil, apierror.Validar("hasta debe tener formato YYYY-MM-DD")
	}
	if desde.After(hasta) {
		return nil, apierror.Validar("desde no puede ser posterior a hasta")
	}

	var (
		ventas      []model.Venta
		compras     []model.Compra
		retenciones []model.Retencion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ventas, err = s.ventas.ListPeriodo(gctx, empresaID, desde, hasta)
		return err
	})
	g.Go(func() error {
		var err error
		compras, err = s.compras.ListPeriodo(gctx, empresaID, desde, hasta)
		return err
	})
	g.Go(func() error {
		var err error
		retenciones, err = s.retenciones.ListPeriodo(gctx, empresaID, desde, hasta)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := fiscal.AgregarPeriodo(empresaID, desde, hasta, ventas, compras, retenciones)
	return &r, nil
}
