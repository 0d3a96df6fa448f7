package testutil

// SquareShapesLua is a well-formed file with a single square shape.
const SquareShapesLua = `{
  {5001, --Square
    {
      {verts={{5,-5},{-5,-5},{-5,5},{5,5}}, ports={{0,0.5},{1,0.5},{2,0.5},{3,0.5}}}
    }
  },
}
`

// LegacyShapesLua is missing the comma after the shape id, so only the
// lenient parser can recover it.
const LegacyShapesLua = `{
  {5002 --Broken
    {
      {verts={{1,1},{-1,1},{0,-1}}, ports={{0,0.5,THRUSTER_OUT}}}
    }
  },
}
`

// GarbageShapesLua contains shape-like lines but no recoverable geometry.
const GarbageShapesLua = `{
  {abc,
  {def,
}
`
