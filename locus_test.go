// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"gopkg.in/check.v1"
)

type locusSuite struct {
	cfg *Config
}

var _ = check.Suite(&locusSuite{})

func (s *locusSuite) SetUpTest(c *check.C) {
	s.cfg = DefaultConfig()
}

func (s *locusSuite) TestCheckLocus(c *check.C) {
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 13, Begin: 10, End: 20}), check.IsNil)
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 13, Begin: 10, End: 10}), check.IsNil)
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 26, ChromName: "chrUn_gl000220", Begin: 10, End: 20}), check.IsNil)

	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 13, Begin: 20, End: 10}), check.FitsTypeOf, &RangeError{})
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 20, Chromosome: 13, Begin: 10, End: 20}), check.FitsTypeOf, &RangeError{})
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 30, Begin: 10, End: 20}), check.FitsTypeOf, &RangeError{})
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 26, Begin: 10, End: 20}), check.FitsTypeOf, &FormatError{})
	c.Check(s.cfg.CheckLocus(Locus{Assembly: 19, Chromosome: 13, ChromName: "chr13", Begin: 10, End: 20}), check.FitsTypeOf, &FormatError{})
}

func (s *locusSuite) TestContains(c *check.C) {
	outer := Locus{Assembly: 19, Chromosome: 13, Begin: 100, End: 200}
	c.Check(outer.Contains(Locus{Assembly: 19, Chromosome: 13, Begin: 100, End: 200}), check.Equals, true)
	c.Check(outer.Contains(Locus{Assembly: 19, Chromosome: 13, Begin: 150, End: 150}), check.Equals, true)
	c.Check(outer.Contains(Locus{Assembly: 19, Chromosome: 13, Begin: 99, End: 150}), check.Equals, false)
	c.Check(outer.Contains(Locus{Assembly: 19, Chromosome: 13, Begin: 150, End: 201}), check.Equals, false)
	c.Check(outer.Contains(Locus{Assembly: 19, Chromosome: 14, Begin: 150, End: 160}), check.Equals, false)
	c.Check(outer.Contains(Locus{Assembly: 38, Chromosome: 13, Begin: 150, End: 160}), check.Equals, false)

	other := Locus{Assembly: 19, Chromosome: 26, ChromName: "chrUn_gl000220", Begin: 100, End: 200}
	c.Check(other.Compatible(Locus{Assembly: 19, Chromosome: 26, ChromName: "chrUn_gl000221"}), check.Equals, false)
	c.Check(other.Compatible(Locus{Assembly: 19, Chromosome: 26, ChromName: "chrUn_gl000220"}), check.Equals, true)
}

func (s *locusSuite) TestParseBuild(c *check.C) {
	l, err := s.cfg.ParseBuild("hg19 chr13 32199999 32200273")
	c.Check(err, check.IsNil)
	c.Check(l, check.Equals, Locus{Assembly: 19, Chromosome: 13, Begin: 32199999, End: 32200273})

	l, err = s.cfg.ParseBuild("hg19 chrM 100-2 350+5")
	c.Check(err, check.IsNil)
	c.Check(l, check.Equals, Locus{Assembly: 19, Chromosome: 25, Begin: 100, End: 350})

	l, err = s.cfg.ParseBuild("hg38 chrUn_gl000220 5 10")
	c.Check(err, check.IsNil)
	c.Check(l, check.Equals, Locus{Assembly: 38, Chromosome: 26, ChromName: "chrUn_gl000220", Begin: 5, End: 10})
	c.Check(l.String(), check.Equals, "38:26/chrUn_gl000220:5-10")

	for _, bad := range []string{
		"hg19 chr13 32199999",
		"hg20 chr13 1 2",
		"hg19 chr13 x 2",
		"hg19 chr13 1 y",
	} {
		_, err = s.cfg.ParseBuild(bad)
		c.Check(err, check.FitsTypeOf, &FormatError{}, check.Commentf("%q", bad))
	}
	_, err = s.cfg.ParseBuild("hg19 chr13 20 10")
	c.Check(err, check.FitsTypeOf, &RangeError{})
}
