// cmd/seeduser/main.go — crea la empresa demo, su administrador y los metodos
// de pago basicos. Idempotente.
// Uso: go run ./cmd/seeduser -rif J-12345678-9 -password secreto
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"novaadm/internal/config"
	"novaadm/internal/infra"
	"novaadm/internal/model"
	"novaadm/internal/moneda"
	"novaadm/internal/repository"
	"novaadm/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rif := flag.String("rif", "J-12345678-9", "RIF de la empresa")
	razon := flag.String("razon", "Empresa Demo C.A.", "razon social")
	username := flag.String("username", "admin", "usuario administrador")
	password := flag.String("password", "", "password del administrador (obligatorio)")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("seed: -password es obligatorio")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	empresa, err := seedEmpresa(ctx, repository.NewEmpresaRepository(db), service.NormalizarRIF(*rif), *razon)
	if err != nil {
		log.Fatal().Err(err).Msg("seed: empresa")
	}
	if err := seedAdmin(ctx, repository.NewUsuarioRepository(db), empresa.ID, *username, *password); err != nil {
		log.Fatal().Err(err).Msg("seed: administrador")
	}
	if err := seedMetodos(ctx, repository.NewMetodoPagoRepository(db), empresa.ID); err != nil {
		log.Fatal().Err(err).Msg("seed: metodos de pago")
	}

	log.Info().Str("empresa_id", empresa.ID.String()).Str("username", *username).Msg("seed: listo")
}

func seedEmpresa(ctx context.Context, repo repository.EmpresaRepository, rif, razon string) (*model.Empresa, error) {
	e, err := repo.FindByRIF(ctx, rif)
	if err == nil {
		log.Info().Str("rif", rif).Msg("seed: empresa ya existe")
		return e, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	e = &model.Empresa{RIF: rif, RazonSocial: razon, AgenteRetencion: true}
	return e, repo.Create(ctx, e)
}

func seedAdmin(ctx context.Context, repo repository.UsuarioRepository, empresaID uuid.UUID, username, password string) error {
	if _, err := repo.FindByUsername(ctx, username); err == nil {
		log.Info().Str("username", username).Msg("seed: usuario ya existe")
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	return repo.Create(ctx, &model.Usuario{
		EmpresaID:    empresaID,
		Username:     username,
		Nombre:       "Administrador",
		PasswordHash: hash,
		Rol:          service.RolAdministrador,
		Activo:       true,
	})
}

func seedMetodos(ctx context.Context, repo repository.MetodoPagoRepository, empresaID uuid.UUID) error {
	existentes, err := repo.List(ctx, empresaID)
	if err != nil {
		return err
	}
	if len(existentes) > 0 {
		return nil
	}
	for _, m := range []struct {
		nombre string
		moneda moneda.Moneda
	}{
		{"Efectivo USD", moneda.USD},
		{"Zelle", moneda.USD},
		{"Efectivo BS", moneda.BS},
		{"Pago Movil", moneda.BS},
		{"Punto de venta", moneda.BS},
	} {
		if err := repo.Create(ctx, &model.MetodoPago{EmpresaID: empresaID, Nombre: m.nombre, Moneda: m.moneda, Activo: true}); err != nil {
			return err
		}
	}
	return nil
}
