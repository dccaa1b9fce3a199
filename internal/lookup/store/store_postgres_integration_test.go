//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"brokerdesk/internal/lookup/store"
	"brokerdesk/pkg/testutil/containers"
)

type PostgresCatalogSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	catalog *store.PostgresCatalog
}

func TestPostgresCatalogSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCatalogSuite))
}

func (s *PostgresCatalogSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.catalog = store.NewPostgresCatalog(s.pg.DB)

	ctx := context.Background()
	_, err := s.pg.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ref_postal_codes (code text PRIMARY KEY, cities text[] NOT NULL);
		CREATE TABLE IF NOT EXISTS ref_vehicle_makes (id int PRIMARY KEY, name text NOT NULL);
		CREATE TABLE IF NOT EXISTS ref_vehicle_models (id int PRIMARY KEY, make_id int NOT NULL, name text NOT NULL);
		CREATE TABLE IF NOT EXISTS ref_insurers (id int PRIMARY KEY, name text NOT NULL);
		CREATE TABLE IF NOT EXISTS ref_quote_statuses (value text PRIMARY KEY, label text NOT NULL, position int NOT NULL);
		CREATE TABLE IF NOT EXISTS ref_nationalities (code text PRIMARY KEY, label text NOT NULL);
		TRUNCATE ref_postal_codes, ref_vehicle_makes, ref_vehicle_models, ref_insurers, ref_quote_statuses, ref_nationalities;
		INSERT INTO ref_postal_codes VALUES ('1000', ARRAY['Bruxelles']), ('4000', ARRAY['Liège', 'Glain']);
		INSERT INTO ref_vehicle_makes VALUES (9, 'Peugeot'), (12, 'Volkswagen'), (13, 'Volvo');
		INSERT INTO ref_vehicle_models VALUES (1201, 12, 'Golf'), (1202, 12, 'Polo');
		INSERT INTO ref_insurers VALUES (1, 'AG Insurance');
		INSERT INTO ref_quote_statuses VALUES ('Nouveau', 'Nouveau', 1), ('Document disponible', 'Document disponible', 3);
		INSERT INTO ref_nationalities VALUES ('BE', 'Belge');
	`)
	s.Require().NoError(err)
}

func (s *PostgresCatalogSuite) TestCities() {
	cities, err := s.catalog.CitiesByPostalCode(context.Background(), "4000")
	s.Require().NoError(err)
	s.Equal([]string{"Liège", "Glain"}, cities)

	cities, err = s.catalog.CitiesByPostalCode(context.Background(), "9999")
	s.Require().NoError(err)
	s.Empty(cities)
}

func (s *PostgresCatalogSuite) TestMakesAndModels() {
	makes, err := s.catalog.SearchMakes(context.Background(), "vo")
	s.Require().NoError(err)
	s.Require().Len(makes, 2)
	s.Equal("12", makes[0].ID)

	models, err := s.catalog.SearchModels(context.Background(), "12", "p")
	s.Require().NoError(err)
	s.Require().Len(models, 1)
	s.Equal("Polo", models[0].Name)
}

func (s *PostgresCatalogSuite) TestReferenceLists() {
	statuses, err := s.catalog.ListStatuses(context.Background())
	s.Require().NoError(err)
	s.Equal("Nouveau", statuses[0].Value)

	insurers, err := s.catalog.ListInsurers(context.Background())
	s.Require().NoError(err)
	s.Len(insurers, 1)
}
