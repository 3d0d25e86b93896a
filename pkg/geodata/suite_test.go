package geodata

import (
	"context"
	"path/filepath"
	"testing"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type ScenarioSuite struct {
	client *Client
	ctx    context.Context
}

var _ = Suite(&ScenarioSuite{})

func (s *ScenarioSuite) SetUpTest(c *C) {
	dir, err := filepath.Abs(filepath.Join("testdata", "geo"))
	c.Assert(err, IsNil)
	s.client, err = New(Config{DataDir: dir, Host: "fs"})
	c.Assert(err, IsNil)
	s.ctx = context.Background()
}

func (s *ScenarioSuite) TestCountryByCode(c *C) {
	co, err := s.client.GetCountry(s.ctx, "US")
	c.Assert(err, IsNil)
	c.Assert(co, NotNil)
	c.Assert(co.Name, Equals, "United States")
	c.Assert(co.ISO2, Equals, "US")
}

func (s *ScenarioSuite) TestStatesOfCountry(c *C) {
	states, err := s.client.GetStatesOfCountry(s.ctx, "US")
	c.Assert(err, IsNil)
	c.Assert(len(states), Not(Equals), 0)
	var found bool
	for _, st := range states {
		if st.ISO2 == "CA" {
			c.Assert(st.Name, Equals, "California")
			found = true
		}
	}
	c.Assert(found, Equals, true)
}

func (s *ScenarioSuite) TestCitiesOfState(c *C) {
	cities, err := s.client.GetCitiesOfState(s.ctx, "US", "CA")
	c.Assert(err, IsNil)
	c.Assert(len(cities), Not(Equals), 0)
	var names []string
	for _, ci := range cities {
		names = append(names, ci.Name)
	}
	c.Assert(names, DeepEquals, []string{"Los Angeles", "San Francisco", "San Diego"})
}

func (s *ScenarioSuite) TestUnknownCountryIsNil(c *C) {
	co, err := s.client.GetCountry(s.ctx, "ZZ")
	c.Assert(err, IsNil)
	c.Assert(co, IsNil)
}

func (s *ScenarioSuite) TestStatesOfUnknownCountryIsEmpty(c *C) {
	states, err := s.client.GetStatesOfCountry(s.ctx, "ZZ")
	c.Assert(err, IsNil)
	c.Assert(states, NotNil)
	c.Assert(states, HasLen, 0)
}

func (s *ScenarioSuite) TestCitiesOfUnknownStateIsEmpty(c *C) {
	cities, err := s.client.GetCitiesOfState(s.ctx, "US", "ZZ")
	c.Assert(err, IsNil)
	c.Assert(cities, HasLen, 0)

	cities, err = s.client.GetCitiesOfState(s.ctx, "US", "NY")
	c.Assert(err, IsNil)
	c.Assert(cities, NotNil)
	c.Assert(cities, HasLen, 0)
}
